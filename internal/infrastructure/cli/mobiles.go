package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

var (
	mobilesLat       float64
	mobilesLng       float64
	mobilesAvailable bool
	mobilesFrom      string
)

var mobilesCmd = &cobra.Command{
	Use:     "mobiles",
	Aliases: []string{"units"},
	Short:   "Look up and report on mobile units",
}

var mobilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mobile units",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		units, err := services.API.Mobiles(cmd.Context())
		if err != nil {
			return err
		}
		return emit(cmd, units, func(w io.Writer) { printFleet(w, units) })
	},
}

var mobilesAvailableCmd = &cobra.Command{
	Use:   "available",
	Short: "List units free to take an order near a location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		units, err := services.API.AvailableMobiles(cmd.Context(), mobilesLat, mobilesLng)
		if err != nil {
			return err
		}
		return emit(cmd, units, func(w io.Writer) {
			if len(units) == 0 {
				_, _ = fmt.Fprintln(w, "No units available right now.")
				return
			}
			for _, u := range units {
				if u.Distance > 0 {
					_, _ = fmt.Fprintf(w, "%-4s %-20s %.1f km\n", u.ID, u.Name, u.Distance)
				} else {
					_, _ = fmt.Fprintf(w, "%-4s %s\n", u.ID, u.Name)
				}
			}
		})
	},
}

var mobilesShowCmd = &cobra.Command{
	Use:   "show <unit-id>",
	Short: "Show a mobile unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		u, err := services.API.Mobile(cmd.Context(), fleet.ID(args[0]))
		if err != nil {
			return err
		}
		return emit(cmd, u, func(w io.Writer) { printFleet(w, []fleet.Unit{*u}) })
	},
}

var mobilesLocationCmd = &cobra.Command{
	Use:   "location <unit-id>",
	Short: "Report the position of a unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lng") {
			return NewCLIError("--lat and --lng are required", "Pass both coordinates", nil)
		}
		services, err := loadServices()
		if err != nil {
			return err
		}
		id := fleet.ID(args[0])
		if err := services.API.UpdateMobileLocation(cmd.Context(), id, order.Coordinate{Lat: mobilesLat, Lng: mobilesLng}); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Location of unit %s updated.\n", id)
		return nil
	},
}

var mobilesAvailabilityCmd = &cobra.Command{
	Use:   "availability <unit-id>",
	Short: "Mark a unit available or busy",
	Long: `Mark a unit available or busy.

Examples:
  carwash mobiles availability 2 --available=false --from "2026-05-01 14:00"
  carwash mobiles availability 2 --available`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		id := fleet.ID(args[0])
		change := fleet.AvailabilityChange{IsAvailable: mobilesAvailable, AvailableFrom: mobilesFrom}
		if err := services.API.UpdateMobileAvailability(cmd.Context(), id, change); err != nil {
			return err
		}
		state := "busy"
		if mobilesAvailable {
			state = "available"
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unit %s marked %s.\n", id, state)
		return nil
	},
}

func init() {
	mobilesAvailableCmd.Flags().Float64Var(&mobilesLat, "lat", 0, "Latitude of the service location")
	mobilesAvailableCmd.Flags().Float64Var(&mobilesLng, "lng", 0, "Longitude of the service location")
	mobilesLocationCmd.Flags().Float64Var(&mobilesLat, "lat", 0, "Latitude")
	mobilesLocationCmd.Flags().Float64Var(&mobilesLng, "lng", 0, "Longitude")
	mobilesAvailabilityCmd.Flags().BoolVar(&mobilesAvailable, "available", true, "Whether the unit takes new orders")
	mobilesAvailabilityCmd.Flags().StringVar(&mobilesFrom, "from", "", "When a busy unit is free again")

	mobilesCmd.AddCommand(mobilesListCmd, mobilesAvailableCmd, mobilesShowCmd, mobilesLocationCmd, mobilesAvailabilityCmd)
	RootCmd.AddCommand(mobilesCmd)
}
