package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Manage vehicle images",
}

var uploadImageCmd = &cobra.Command{
	Use:   "image <path>",
	Short: "Upload a vehicle image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		url, err := uploadImage(cmd, services, args[0])
		if err != nil {
			return err
		}
		return emit(cmd, map[string]string{"imageUrl": url}, func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "Uploaded: %s\n", url)
		})
	},
}

var uploadInfoCmd = &cobra.Command{
	Use:   "info <filename>",
	Short: "Show metadata of a stored image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		img, err := services.API.VehicleImageInfo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return emit(cmd, img, func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "File: %s\nURL:  %s\n", img.Filename, img.ImageURL)
			if img.Size > 0 {
				_, _ = fmt.Fprintf(w, "Size: %d bytes\n", img.Size)
			}
			if img.MimeType != "" {
				_, _ = fmt.Fprintf(w, "Type: %s\n", img.MimeType)
			}
		})
	},
}

var uploadDeleteCmd = &cobra.Command{
	Use:   "delete <filename>",
	Short: "Delete a stored image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		if err := services.API.DeleteVehicleImage(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", args[0])
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		h, err := services.API.Health(cmd.Context())
		if err != nil {
			return err
		}
		return emit(cmd, h, func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "Backend %s: %s\n", services.API.BaseURL(), h.Status)
		})
	},
}

func init() {
	uploadCmd.AddCommand(uploadImageCmd, uploadInfoCmd, uploadDeleteCmd)
	RootCmd.AddCommand(uploadCmd, healthCmd)
}
