package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/felixgeelhaar/carwash/internal/infrastructure/sse"
	"github.com/felixgeelhaar/carwash/internal/infrastructure/watch"
	"github.com/felixgeelhaar/carwash/internal/infrastructure/webhook"
	"github.com/felixgeelhaar/carwash/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
	"github.com/felixgeelhaar/carwash/pkg/realtime"
	"github.com/felixgeelhaar/carwash/pkg/store"
)

const monitorHandler = "cli.monitor"

// deadLetterFile sits next to the credentials file.
const deadLetterFile = "forward-deadletters.jsonl"

var (
	monitorMetricsAddr   string
	monitorReconnects    int
	monitorForwardURL    string
	monitorForwardSecret string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Follow new orders and status changes live (admin)",
	Long: `Follow new orders and status changes live.

Every real-time event is printed as it arrives. With --metrics-addr the
client's Prometheus metrics are served on /metrics and the events are
relayed as Server-Sent Events on /events. With --forward-url every event is
also posted to that endpoint; failed deliveries are kept in
~/.carwash/forward-deadletters.jsonl. The monitor stops when
the stored operator token is removed and re-verifies it when it changes.`,
	Args: cobra.NoArgs,
	RunE: runMonitorCmd,
}

// syncWriter serializes lines written from event and file watcher goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, format, args...)
}

func runMonitorCmd(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := adminServices(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	out := &syncWriter{w: cmd.OutOrStdout()}
	relay := sse.NewRelay()

	if monitorMetricsAddr != "" {
		srv := serveMonitor(services, relay, monitorMetricsAddr)
		defer func() { _ = srv.Close() }()
		out.printf("Metrics on http://%s/metrics, events on http://%s/events\n", monitorMetricsAddr, monitorMetricsAddr)
	}

	credWatcher, err := watch.NewFileWatcher(0, func(c watch.Change) {
		onCredentialChange(ctx, services, out, c, cancel)
	}, services.Credentials.Path())
	if err != nil {
		return fmt.Errorf("watch credentials: %w", err)
	}
	go func() { _ = credWatcher.Run(ctx) }()

	var forwarder *webhook.Forwarder
	if monitorForwardURL != "" {
		dl := webhook.NewDeadLetterStore(filepath.Join(filepath.Dir(services.Credentials.Path()), deadLetterFile))
		forwarder = webhook.NewForwarder(webhook.Endpoint{URL: monitorForwardURL, Secret: monitorForwardSecret}, dl,
			webhook.WithLogger(services.Logger))
		defer forwarder.Wait()
	}

	conn := services.Realtime()
	store.BindRealtime(conn, services.Store)
	conn.Handle(monitorHandler, func(_ context.Context, ev realtime.Event) error {
		printEvent(out, ev)
		relay.Publish(ev)
		if forwarder != nil {
			forwarder.Forward(ctx, ev)
		}
		return nil
	}, realtime.EventStatusUpdate, realtime.EventAdminStatusUpdate, realtime.EventOrderCreated)

	for {
		if err := connectWithRetry(ctx, conn); err != nil {
			if ctx.Err() != nil {
				break
			}
			return NewCLIError("real-time channel unavailable", "Check --socket-url or CARWASH_SOCKET_URL", err)
		}
		out.printf("Connected to %s\n", services.Config.SocketURL)

		select {
		case <-ctx.Done():
		case <-conn.Done():
			out.printf("Connection lost; reconnecting\n")
			continue
		}
		break
	}

	_ = conn.Close()
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

func connectWithRetry(ctx context.Context, conn *realtime.Conn) error {
	attempts := max(monitorReconnects, 1)
	r := retry.New[struct{}](retry.Config{
		MaxAttempts:   attempts,
		InitialDelay:  500 * time.Millisecond,
		BackoffPolicy: retry.BackoffExponential,
	})
	_, err := r.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, conn.Connect(ctx)
	})
	return err
}

func serveMonitor(services *wiring.Services, relay *sse.Relay, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", services.Metrics.Handler())
	mux.Handle("/events", relay)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			services.Logger.Error("monitor server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return srv
}

// onCredentialChange stops the monitor when the token is gone and verifies
// a replaced one.
func onCredentialChange(ctx context.Context, services *wiring.Services, out *syncWriter, c watch.Change, stop context.CancelCauseFunc) {
	token, err := services.Admin.InitializeAuth()
	if err != nil || token == "" || c.Type == watch.Removed {
		out.printf("Operator token removed; stopping\n")
		stop(wiring.ErrNotLoggedIn)
		return
	}
	if err := services.Admin.VerifySession(ctx); err != nil {
		out.printf("Operator token rejected; stopping\n")
		stop(err)
		return
	}
	out.printf("Operator token changed; session verified\n")
}

func printEvent(out *syncWriter, ev realtime.Event) {
	now := time.Now().Format("15:04:05")
	switch ev.Type {
	case realtime.EventOrderCreated:
		var created order.CreatedEvent
		if err := ev.Decode(&created); err != nil {
			out.printf("[%s] %s (undecodable: %v)\n", now, ev.Type, err)
			return
		}
		out.printf("[%s] new order #%s %s %.2f\n", now, created.OrderID, created.ServiceType, created.Price)
	default:
		var se order.StatusEvent
		if err := ev.Decode(&se); err != nil {
			out.printf("[%s] %s (undecodable: %v)\n", now, ev.Type, err)
			return
		}
		out.printf("[%s] order #%s -> %s\n", now, se.OrderID, se.Status.DisplayName())
	}
}

func init() {
	monitorCmd.Flags().StringVar(&monitorMetricsAddr, "metrics-addr", "", "Serve /metrics and the /events stream on this address")
	monitorCmd.Flags().StringVar(&monitorForwardURL, "forward-url", "", "Post every event to this URL")
	monitorCmd.Flags().StringVar(&monitorForwardSecret, "forward-secret", "", "Sign forwarded events with this HMAC secret")
	monitorCmd.Flags().IntVar(&monitorReconnects, "reconnect-attempts", 5, "Connection attempts before giving up")
	RootCmd.AddCommand(monitorCmd)
}
