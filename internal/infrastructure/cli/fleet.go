package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
)

var (
	fleetName      string
	fleetAvailable bool
	fleetLat       float64
	fleetLng       float64
	fleetAvailFrom string
)

var adminFleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "List every mobile unit",
	Args:  cobra.NoArgs,
	RunE:  runAdminFleetCmd,
}

var adminFleetUpdateCmd = &cobra.Command{
	Use:   "fleet-update <unit-id>",
	Short: "Update a mobile unit",
	Long: `Update a mobile unit. Only the flags given are sent.

Examples:
  carwash admin fleet-update 2 --available=false --available-from "2026-05-01 14:00"
  carwash admin fleet-update 1 --lat 32.07 --lng 34.79`,
	Args: cobra.ExactArgs(1),
	RunE: runAdminFleetUpdateCmd,
}

func runAdminFleetCmd(cmd *cobra.Command, args []string) error {
	services, err := adminServices(cmd)
	if err != nil {
		return err
	}
	units, err := services.Admin.FetchFleet(cmd.Context())
	if err != nil {
		return err
	}
	return emit(cmd, units, func(w io.Writer) { printFleet(w, units) })
}

func runAdminFleetUpdateCmd(cmd *cobra.Command, args []string) error {
	upd := fleetUpdateFromFlags(cmd)
	if upd.IsEmpty() {
		return NewCLIError("nothing to update", "Pass at least one of --name, --available, --lat, --lng, --available-from", nil)
	}
	services, err := adminServices(cmd)
	if err != nil {
		return err
	}
	id := fleet.ID(args[0])
	res, err := services.Admin.UpdateFleetUnit(cmd.Context(), id, upd)
	if err != nil {
		return err
	}
	return emit(cmd, res, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "Unit %s updated.\n", id)
		for _, u := range services.Store.State().Admin.Fleet {
			if u.ID == id {
				printFleet(w, []fleet.Unit{u})
			}
		}
	})
}

func fleetUpdateFromFlags(cmd *cobra.Command) fleet.Update {
	var upd fleet.Update
	f := cmd.Flags()
	if f.Changed("name") {
		name := fleetName
		upd.Name = &name
	}
	if f.Changed("available") {
		available := fleetAvailable
		upd.IsAvailable = &available
	}
	if f.Changed("lat") {
		lat := fleetLat
		upd.LocationLat = &lat
	}
	if f.Changed("lng") {
		lng := fleetLng
		upd.LocationLng = &lng
	}
	if f.Changed("available-from") {
		from := fleetAvailFrom
		upd.AvailableFrom = &from
	}
	return upd
}

func availabilityLabel(u fleet.Unit) string {
	if u.IsAvailable {
		return statusDone.Render("available")
	}
	return statusWIP.Render("busy")
}

// printFleet renders the units as a table.
func printFleet(w io.Writer, units []fleet.Unit) {
	if len(units) == 0 {
		_, _ = fmt.Fprintln(w, "No mobile units.")
		return
	}
	columns := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Name", Width: 20},
		{Title: "Status", Width: 10},
		{Title: "Location", Width: 20},
		{Title: "Order", Width: 8},
		{Title: "Available From", Width: 20},
	}
	rows := make([]table.Row, 0, len(units))
	for _, u := range units {
		current := "-"
		if !u.CurrentOrderID.IsZero() {
			current = "#" + u.CurrentOrderID.String()
		}
		from := u.AvailableFrom
		if from == "" {
			from = "-"
		}
		rows = append(rows, table.Row{
			u.ID.String(),
			u.Name,
			availabilityLabel(u),
			fmt.Sprintf("%.4f, %.4f", u.LocationLat, u.LocationLng),
			current,
			from,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	_, _ = fmt.Fprintln(w, baseStyle.Render(t.View()))
}

func init() {
	f := adminFleetUpdateCmd.Flags()
	f.StringVar(&fleetName, "name", "", "Unit name")
	f.BoolVar(&fleetAvailable, "available", true, "Whether the unit takes new orders")
	f.Float64Var(&fleetLat, "lat", 0, "Latitude")
	f.Float64Var(&fleetLng, "lng", 0, "Longitude")
	f.StringVar(&fleetAvailFrom, "available-from", "", "When a busy unit is free again")

	adminCmd.AddCommand(adminFleetCmd, adminFleetUpdateCmd)
}
