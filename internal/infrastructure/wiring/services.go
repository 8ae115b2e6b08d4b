package wiring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/felixgeelhaar/carwash/internal/infrastructure/config"
	"github.com/felixgeelhaar/carwash/internal/infrastructure/metrics"
	"github.com/felixgeelhaar/carwash/pkg/api"
	"github.com/felixgeelhaar/carwash/pkg/realtime"
	"github.com/felixgeelhaar/carwash/pkg/storage"
	"github.com/felixgeelhaar/carwash/pkg/store"
)

// ErrNotLoggedIn is returned when an admin operation finds no stored credential.
var ErrNotLoggedIn = errors.New("not logged in")

// Services is the client wired together from one configuration.
type Services struct {
	Config      config.Config
	Logger      *zap.Logger
	Metrics     *metrics.Recorder
	Credentials *storage.CredentialFile
	API         *api.Client
	Store       *store.Store
	Orders      *store.Orders
	Admin       *store.Admin
}

// BuildServices constructs the API client, the store and its controllers.
func BuildServices(cfg config.Config, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api url is empty")
	}

	var storeOpts []store.Option
	storeOpts = append(storeOpts, store.WithLogger(logger))
	if cfg.LifecycleOrdering {
		storeOpts = append(storeOpts, store.WithLifecycleOrdering())
	}
	st := store.New(storeOpts...)

	rec := metrics.New("carwash")
	creds := storage.NewCredentialFile(cfg.Credentials)

	apiOpts := []api.Option{
		api.WithLogger(logger),
		api.WithObserver(rec),
		api.WithTokenStore(creds),
		api.WithUnauthorizedHandler(st.UnauthorizedHandler()),
	}
	if cfg.Timeout > 0 {
		apiOpts = append(apiOpts, api.WithTimeout(cfg.Timeout))
	}
	if cfg.Retry > 1 {
		apiOpts = append(apiOpts, api.WithRetry(cfg.Retry, 200*time.Millisecond))
	}
	client := api.New(cfg.APIURL, apiOpts...)

	return &Services{
		Config:      cfg,
		Logger:      logger,
		Metrics:     rec,
		Credentials: creds,
		API:         client,
		Store:       st,
		Orders:      store.NewOrders(st, client),
		Admin:       store.NewAdmin(st, client, creds),
	}, nil
}

// Realtime returns an unconnected real-time connection reporting to the
// same logger and metrics as the API client.
func (s *Services) Realtime(opts ...realtime.Option) *realtime.Conn {
	base := []realtime.Option{
		realtime.WithLogger(s.Logger),
		realtime.WithObserver(s.Metrics),
	}
	return realtime.New(s.Config.SocketURL, append(base, opts...)...)
}

// AdminSession restores the persisted session and verifies it with the
// backend. A rejected credential is cleared.
func (s *Services) AdminSession(ctx context.Context) error {
	token, err := s.Admin.InitializeAuth()
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNotLoggedIn
	}
	return s.Admin.VerifySession(ctx)
}
