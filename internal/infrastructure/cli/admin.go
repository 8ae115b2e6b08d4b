package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/carwash/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/carwash/pkg/domain/admin"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

var (
	loginEmail    string
	loginPassword string

	logsPage    int
	logsLimit   int
	logsOrderID string

	ordersStatus   string
	ordersMobileID string
	ordersPage     int
	ordersLimit    int

	setStatusNotes string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Operator commands (login required)",
	Long: `Operator commands.

Log in once with 'carwash admin login'; the issued token is stored in
~/.carwash/credentials.yaml and verified with the backend before each
command. A rejected token is removed.`,
}

var adminLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as an operator",
	Long: `Log in as an operator.

The password is read from standard input when --password is not given.`,
	Args: cobra.NoArgs,
	RunE: runAdminLoginCmd,
}

var adminLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored operator token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		if err := services.Admin.Logout(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var adminWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Verify the stored operator session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := adminServices(cmd)
		if err != nil {
			return err
		}
		st := services.Store.State().Admin
		out := map[string]any{
			"authenticated": st.IsAuthenticated,
			"verified":      st.Verified,
			"credentials":   services.Credentials.Path(),
		}
		return emit(cmd, out, func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "Session verified (token in %s).\n", services.Credentials.Path())
		})
	},
}

var adminDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the operator dashboard summary",
	Args:  cobra.NoArgs,
	RunE:  runAdminDashboardCmd,
}

var adminLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List the activity log",
	Args:  cobra.NoArgs,
	RunE:  runAdminLogsCmd,
}

var adminOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List orders",
	Long: `List orders.

Examples:
  carwash admin orders --status washing
  carwash admin orders --mobile 2 --page 2 --limit 50`,
	Args: cobra.NoArgs,
	RunE: runAdminOrdersCmd,
}

var adminSetStatusCmd = &cobra.Command{
	Use:   "set-status <order-id> <status>",
	Short: "Change the status of an order as an operator",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminSetStatusCmd,
}

// adminServices loads the services and verifies the stored session.
func adminServices(cmd *cobra.Command) (*wiring.Services, error) {
	services, err := loadServices()
	if err != nil {
		return nil, err
	}
	if err := services.AdminSession(cmd.Context()); err != nil {
		return nil, err
	}
	return services, nil
}

func runAdminLoginCmd(cmd *cobra.Command, args []string) error {
	creds := admin.Credentials{Email: strings.TrimSpace(loginEmail), Password: loginPassword}
	if creds.Password == "" {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return NewCLIError("no password given", "Pass --password or type it when prompted", err)
		}
		creds.Password = strings.TrimRight(line, "\r\n")
	}
	if err := creds.Validate(); err != nil {
		return NewCLIError(err.Error(), "Pass --email and --password", err)
	}

	services, err := loadServices()
	if err != nil {
		return err
	}
	res, err := services.Admin.Login(cmd.Context(), creds)
	if err != nil {
		if f := services.Store.State().Admin.Error; f != nil && f.Unauthorized() {
			return NewCLIError("login failed", "Check the email and password", err)
		}
		return err
	}
	return emit(cmd, res.Admin, func(w io.Writer) {
		name := creds.Email
		if res.Admin != nil && res.Admin.Name != "" {
			name = res.Admin.Name
		}
		_, _ = fmt.Fprintf(w, "Logged in as %s.\n", name)
	})
}

type dashboardOverview struct {
	Overview struct {
		TotalOrders      int     `json:"totalOrders"`
		TotalRevenue     float64 `json:"totalRevenue"`
		AvailableMobiles int     `json:"availableMobiles"`
		TotalMobiles     int     `json:"totalMobiles"`
	} `json:"overview"`
	OrdersByStatus []struct {
		Status order.Status `json:"status"`
		Count  int          `json:"count"`
	} `json:"ordersByStatus"`
}

func runAdminDashboardCmd(cmd *cobra.Command, args []string) error {
	services, err := adminServices(cmd)
	if err != nil {
		return err
	}
	d, err := services.Admin.FetchDashboard(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), json.RawMessage(d))
	}

	var view dashboardOverview
	if err := json.Unmarshal(d, &view); err != nil {
		return fmt.Errorf("decode dashboard: %w", err)
	}
	w := cmd.OutOrStdout()
	ov := view.Overview
	_, _ = fmt.Fprintln(w, headerStyle.Render("Dashboard"))
	_, _ = fmt.Fprintf(w, "Orders:  %d\n", ov.TotalOrders)
	_, _ = fmt.Fprintf(w, "Revenue: %.2f\n", ov.TotalRevenue)
	_, _ = fmt.Fprintf(w, "Units:   %d of %d available\n", ov.AvailableMobiles, ov.TotalMobiles)
	if len(view.OrdersByStatus) > 0 {
		_, _ = fmt.Fprintln(w, "\nBy status:")
		for _, c := range view.OrdersByStatus {
			_, _ = fmt.Fprintf(w, "  %-14s %d\n", c.Status.DisplayName(), c.Count)
		}
	}
	return nil
}

func runAdminLogsCmd(cmd *cobra.Command, args []string) error {
	q := admin.LogQuery{Page: logsPage, Limit: logsLimit}
	if logsOrderID != "" {
		id, err := parseOrderID(logsOrderID)
		if err != nil {
			return err
		}
		q.OrderID = id
	}
	services, err := adminServices(cmd)
	if err != nil {
		return err
	}
	page, err := services.Admin.FetchLogs(cmd.Context(), q)
	if err != nil {
		return err
	}
	return emit(cmd, page, func(w io.Writer) {
		if len(page.Logs) == 0 {
			_, _ = fmt.Fprintln(w, "No activity.")
			return
		}
		for _, e := range page.Logs {
			_, _ = fmt.Fprintf(w, "%s  #%-6s %-14s %s\n", e.Timestamp, e.OrderID, e.Status.DisplayName(), e.Notes)
		}
		p := page.Pagination
		_, _ = fmt.Fprintf(w, "\nPage %d of %d (%d entries)\n", p.Page, p.Pages, p.Total)
	})
}

func runAdminOrdersCmd(cmd *cobra.Command, args []string) error {
	f := admin.OrderFilter{MobileID: ordersMobileID, Page: ordersPage, Limit: ordersLimit}
	if ordersStatus != "" {
		status, err := parseStatusArg(ordersStatus)
		if err != nil {
			return err
		}
		f.Status = status
	}
	services, err := adminServices(cmd)
	if err != nil {
		return err
	}
	orders, err := services.Admin.FetchOrders(cmd.Context(), f)
	if err != nil {
		return err
	}
	return emit(cmd, orders, func(w io.Writer) {
		if len(orders) == 0 {
			_, _ = fmt.Fprintln(w, "No orders.")
			return
		}
		for _, o := range orders {
			_, _ = fmt.Fprintf(w, "#%-6s %-14s %-10s %-20s %8.2f  %s\n",
				o.ID, o.Status.DisplayName(), o.VehicleNumber, o.ServiceType, o.Price, unitName(&o))
		}
	})
}

func runAdminSetStatusCmd(cmd *cobra.Command, args []string) error {
	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	status, err := parseStatusArg(args[1])
	if err != nil {
		return err
	}
	services, err := adminServices(cmd)
	if err != nil {
		return err
	}
	change, err := services.Admin.UpdateOrderStatus(cmd.Context(), id, status, setStatusNotes)
	if err != nil {
		return err
	}
	return emit(cmd, change, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "Order #%s is now %s.\n", change.OrderID, change.Status.DisplayName())
	})
}

func init() {
	adminLoginCmd.Flags().StringVar(&loginEmail, "email", "", "Operator email")
	adminLoginCmd.Flags().StringVar(&loginPassword, "password", "", "Operator password")

	adminLogsCmd.Flags().IntVar(&logsPage, "page", 1, "Page number")
	adminLogsCmd.Flags().IntVar(&logsLimit, "limit", admin.DefaultLogLimit, "Entries per page")
	adminLogsCmd.Flags().StringVar(&logsOrderID, "order", "", "Only entries of this order")

	adminOrdersCmd.Flags().StringVarP(&ordersStatus, "status", "s", "", "Filter by status")
	adminOrdersCmd.Flags().StringVar(&ordersMobileID, "mobile", "", "Filter by mobile unit id")
	adminOrdersCmd.Flags().IntVar(&ordersPage, "page", 1, "Page number")
	adminOrdersCmd.Flags().IntVar(&ordersLimit, "limit", admin.DefaultOrderLimit, "Orders per page")

	adminSetStatusCmd.Flags().StringVar(&setStatusNotes, "notes", "", "Note recorded in the activity log")

	adminCmd.AddCommand(adminLoginCmd, adminLogoutCmd, adminWhoamiCmd, adminDashboardCmd,
		adminLogsCmd, adminOrdersCmd, adminSetStatusCmd)
	RootCmd.AddCommand(adminCmd)
}
