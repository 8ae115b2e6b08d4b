package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/carwash/internal/infrastructure/validate"
	"github.com/felixgeelhaar/carwash/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// Booking flags shared by order create and order estimate.
var (
	bookPlate     string
	bookType      string
	bookService   string
	bookAddOns    []string
	bookAt        string
	bookLat       float64
	bookLng       float64
	bookAddress   string
	bookDirt      int
	bookName      string
	bookPhone     string
	bookEmail     string
	bookImagePath string
)

var statusNotes string

// Accepted layouts for --at, tried in order.
var bookingTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Book, look up and track car wash orders",
}

var orderCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Book a car wash",
	Long: `Book a car wash.

The booking is validated before it is sent. With --image the vehicle photo
is uploaded first and attached to the order.

Examples:
  carwash order create --plate 12-345-67 --vehicle-type sedan --service exterior \
    --add-on wax --at "2026-05-01 09:30" --address "Rothschild 10" \
    --lat 32.08 --lng 34.78 --email dana@example.com`,
	Args: cobra.NoArgs,
	RunE: runOrderCreateCmd,
}

var orderEstimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Quote price and duration without booking",
	Args:  cobra.NoArgs,
	RunE:  runOrderEstimateCmd,
}

var orderShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Show an order",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderShowCmd,
}

var orderStatusCmd = &cobra.Command{
	Use:   "status <order-id> <status>",
	Short: "Change the status of an order",
	Long: `Change the status of an order.

Valid statuses: pending, assigned, on_way, washing, completed, cancelled`,
	Args: cobra.ExactArgs(2),
	RunE: runOrderStatusCmd,
}

func bookingFromFlags() (order.Request, error) {
	var at time.Time
	if bookAt != "" {
		parsed, err := parseBookingTime(bookAt)
		if err != nil {
			return order.Request{}, err
		}
		at = parsed
	}
	var addOns []string
	for _, a := range bookAddOns {
		if a = strings.TrimSpace(strings.ToLower(a)); a != "" {
			addOns = append(addOns, a)
		}
	}
	return order.Request{
		VehicleNumber:      strings.TrimSpace(bookPlate),
		VehicleType:        strings.ToLower(bookType),
		ServiceType:        strings.ToLower(bookService),
		AdditionalServices: addOns,
		RequestedAt:        at,
		LocationLat:        bookLat,
		LocationLng:        bookLng,
		LocationAddress:    bookAddress,
		DirtLevel:          bookDirt,
		CustomerName:       bookName,
		CustomerPhone:      bookPhone,
		CustomerEmail:      bookEmail,
	}, nil
}

func parseBookingTime(s string) (time.Time, error) {
	for _, layout := range bookingTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, NewCLIError(
		fmt.Sprintf("invalid --at value %q", s),
		"Use RFC 3339 or 'YYYY-MM-DD HH:MM'",
		nil,
	)
}

func runOrderCreateCmd(cmd *cobra.Command, args []string) error {
	req, err := bookingFromFlags()
	if err != nil {
		return err
	}
	if err := validate.Booking(req); err != nil {
		return err
	}

	services, err := loadServices()
	if err != nil {
		return err
	}

	if bookImagePath != "" {
		url, err := uploadImage(cmd, services, bookImagePath)
		if err != nil {
			return err
		}
		req.VehicleImage = url
	}

	o, err := services.Orders.Create(cmd.Context(), req)
	if err != nil {
		return err
	}
	return emit(cmd, o, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "Order #%s booked.\n", o.ID)
		printOrder(w, o)
		_, _ = fmt.Fprintf(w, "\nFollow it live with 'carwash order track %s --watch'.\n", o.ID)
	})
}

func uploadImage(cmd *cobra.Command, services *wiring.Services, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", NewCLIError("cannot read vehicle image", "Check the --image path", err)
	}
	defer func() { _ = f.Close() }()

	img, err := services.API.UploadVehicleImage(cmd.Context(), filepath.Base(path), f)
	if err != nil {
		return "", err
	}
	return img.ImageURL, nil
}

func runOrderEstimateCmd(cmd *cobra.Command, args []string) error {
	req, err := bookingFromFlags()
	if err != nil {
		return err
	}
	services, err := loadServices()
	if err != nil {
		return err
	}
	est, err := services.API.EstimatePrice(cmd.Context(), req)
	if err != nil {
		return err
	}
	return emit(cmd, est, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "Service:  %s\n", req.FullServiceType())
		_, _ = fmt.Fprintf(w, "Price:    %.2f\n", est.Price)
		_, _ = fmt.Fprintf(w, "Duration: %d min\n", est.DurationMinutes)
	})
}

func runOrderShowCmd(cmd *cobra.Command, args []string) error {
	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	services, err := loadServices()
	if err != nil {
		return err
	}
	o, err := services.Orders.Fetch(cmd.Context(), id)
	if err != nil {
		return err
	}
	return emit(cmd, o, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "Order #%s\n", o.ID)
		printOrder(w, o)
	})
}

func runOrderStatusCmd(cmd *cobra.Command, args []string) error {
	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	status, err := parseStatusArg(args[1])
	if err != nil {
		return err
	}
	services, err := loadServices()
	if err != nil {
		return err
	}
	change, err := services.Orders.UpdateStatus(cmd.Context(), id, status, statusNotes)
	if err != nil {
		return err
	}
	return emit(cmd, change, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "Order #%s is now %s.\n", change.OrderID, change.Status.DisplayName())
	})
}

func parseOrderID(s string) (order.ID, error) {
	id, err := order.ParseID(s)
	if err != nil {
		return "", NewCLIError(fmt.Sprintf("invalid order number %q", s), "Pass the number shown after booking, e.g. 42", err)
	}
	return id, nil
}

func parseStatusArg(s string) (order.Status, error) {
	status, err := order.ParseStatus(s)
	if err != nil {
		return "", NewCLIError(err.Error(), "Valid statuses: pending, assigned, on_way, washing, completed, cancelled", err)
	}
	return status, nil
}

func printOrder(w io.Writer, o *order.Order) {
	_, _ = fmt.Fprintf(w, "  Status:   %s\n", o.Status.DisplayName())
	if o.VehicleNumber != "" {
		_, _ = fmt.Fprintf(w, "  Vehicle:  %s (%s)\n", o.VehicleNumber, o.VehicleType)
	}
	if o.ServiceType != "" {
		_, _ = fmt.Fprintf(w, "  Service:  %s\n", o.ServiceType)
	}
	_, _ = fmt.Fprintf(w, "  Price:    %.2f\n", o.Price)
	if o.DurationMinutes > 0 {
		_, _ = fmt.Fprintf(w, "  Duration: %d min\n", o.DurationMinutes)
	}
	if o.LocationAddress != "" {
		_, _ = fmt.Fprintf(w, "  Address:  %s\n", o.LocationAddress)
	}
	if unit := unitName(o); unit != "" {
		_, _ = fmt.Fprintf(w, "  Unit:     %s\n", unit)
	}
	if o.InvoicePath != "" {
		_, _ = fmt.Fprintf(w, "  Invoice:  %s\n", o.InvoicePath)
	}
}

func unitName(o *order.Order) string {
	if o.Mobile != nil && o.Mobile.Name != "" {
		return o.Mobile.Name
	}
	return o.MobileName
}

func addBookingFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&bookPlate, "plate", "", "Vehicle licence plate")
	f.StringVar(&bookType, "vehicle-type", "", "Vehicle type (sedan, suv, truck, van, motorcycle)")
	f.StringVar(&bookService, "service", "", "Base service (exterior, interior, exterior+interior)")
	f.StringSliceVar(&bookAddOns, "add-on", nil, "Add-on service (polish, wax); repeatable")
	f.StringVar(&bookAt, "at", "", "Requested start time (RFC 3339 or 'YYYY-MM-DD HH:MM')")
	f.Float64Var(&bookLat, "lat", 0, "Latitude of the service location")
	f.Float64Var(&bookLng, "lng", 0, "Longitude of the service location")
	f.StringVar(&bookAddress, "address", "", "Street address of the service location")
	f.IntVar(&bookDirt, "dirt", order.DefaultDirtLevel, "Dirt level from 1 to 5")
	f.StringVar(&bookName, "name", "", "Customer name")
	f.StringVar(&bookPhone, "phone", "", "Customer phone number")
	f.StringVar(&bookEmail, "email", "", "Customer email for the invoice")
}

func init() {
	addBookingFlags(orderCreateCmd)
	addBookingFlags(orderEstimateCmd)
	orderCreateCmd.Flags().StringVar(&bookImagePath, "image", "", "Vehicle photo to upload with the booking")
	orderStatusCmd.Flags().StringVar(&statusNotes, "notes", "", "Note recorded in the activity log")

	orderCmd.AddCommand(orderCreateCmd, orderEstimateCmd, orderShowCmd, orderStatusCmd)
	RootCmd.AddCommand(orderCmd)
}
