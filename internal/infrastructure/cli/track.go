package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
	"github.com/felixgeelhaar/carwash/pkg/store"
)

var (
	trackWatch bool
	trackPlain bool
)

var orderTrackCmd = &cobra.Command{
	Use:   "track <order-id>",
	Short: "Show the progress of an order",
	Long: `Show the progress of an order with its activity log.

With --watch the order is followed over the real-time channel until it is
completed or cancelled. The live view is interactive unless --plain or
--json is given, in which case every status change is printed as a line.`,
	Args: cobra.ExactArgs(1),
	RunE: runOrderTrackCmd,
}

type trackingOutput struct {
	*order.TrackingSnapshot
	Progress []order.Step `json:"progress"`
}

type statusLine struct {
	OrderID   order.ID     `json:"order_id"`
	Status    order.Status `json:"status"`
	Message   string       `json:"message"`
	Timestamp time.Time    `json:"timestamp"`
}

func runOrderTrackCmd(cmd *cobra.Command, args []string) error {
	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	services, err := loadServices()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	snap, err := services.Orders.FetchTracking(ctx, id)
	if err != nil {
		return err
	}
	if !trackWatch || snap.Order.Status.IsFinal() {
		out := trackingOutput{TrackingSnapshot: snap, Progress: order.Steps(snap.Order.Status)}
		return emit(cmd, out, func(w io.Writer) { printTracking(w, snap) })
	}

	conn := services.Realtime()
	if err := conn.Connect(ctx); err != nil {
		return NewCLIError("real-time channel unavailable", "Check --socket-url or CARWASH_SOCKET_URL", err)
	}
	defer func() { _ = conn.Close() }()

	bridge := store.BindRealtime(conn, services.Store)
	defer bridge.Unbind()
	stop := bridge.Watch(id)
	defer stop()

	if trackPlain || jsonOutput || os.Getenv("CARWASH_SKIP_TUI") == "true" {
		if !jsonOutput {
			printTracking(cmd.OutOrStdout(), snap)
		}
		return watchPlain(ctx, cmd.OutOrStdout(), services.Store, id, snap.Order.Status, conn.Done())
	}
	return runTrackView(ctx, services.Store, id)
}

// watchPlain prints one line per status change of id until the order reaches
// a final status, the context ends or the connection drops.
func watchPlain(ctx context.Context, w io.Writer, s *store.Store, id order.ID, last order.Status, dropped <-chan struct{}) error {
	changed := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(func(store.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-dropped:
			return NewCLIError("real-time connection closed", "Run the command again to resume tracking", nil)
		case <-changed:
		}

		tr := s.State().Order.Tracking
		if tr == nil || tr.Order.ID != id || tr.Order.Status == last {
			continue
		}
		last = tr.Order.Status
		line := statusLine{OrderID: id, Status: last, Message: order.StatusMessage(last), Timestamp: time.Now()}
		if jsonOutput {
			if err := printJSON(w, line); err != nil {
				return err
			}
		} else {
			_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", line.Timestamp.Format("15:04:05"), last.DisplayName(), line.Message)
		}
		if last.IsFinal() {
			return nil
		}
	}
}

func printTracking(w io.Writer, snap *order.TrackingSnapshot) {
	o := snap.Order
	_, _ = fmt.Fprintf(w, "Order #%s: %s\n", o.ID, o.Status.DisplayName())
	for _, step := range order.Steps(o.Status) {
		mark := "[ ]"
		switch {
		case step.Active:
			mark = "[>]"
		case step.Completed:
			mark = "[x]"
		}
		_, _ = fmt.Fprintf(w, "  %s %s\n", mark, step.Label)
	}
	if o.Status == order.StatusCancelled {
		_, _ = fmt.Fprintln(w, "  This order was cancelled.")
	}
	if unit := unitName(&o); unit != "" {
		_, _ = fmt.Fprintf(w, "Unit: %s\n", unit)
	}
	if len(snap.Logs) > 0 {
		_, _ = fmt.Fprintln(w, "\nActivity:")
		for _, entry := range snap.Logs {
			_, _ = fmt.Fprintf(w, "  %s  %-14s %s\n", entry.Timestamp, entry.Status.DisplayName(), entry.Notes)
		}
	}
}

func init() {
	orderTrackCmd.Flags().BoolVarP(&trackWatch, "watch", "w", false, "Follow the order live")
	orderTrackCmd.Flags().BoolVar(&trackPlain, "plain", false, "Print status changes as lines instead of the live view")
	orderCmd.AddCommand(orderTrackCmd)
}
