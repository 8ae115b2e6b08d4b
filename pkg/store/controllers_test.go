package store_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/carwash/internal/testsupport/fakebackend"
	"github.com/felixgeelhaar/carwash/pkg/api"
	"github.com/felixgeelhaar/carwash/pkg/domain/admin"
	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
	"github.com/felixgeelhaar/carwash/pkg/realtime"
	"github.com/felixgeelhaar/carwash/pkg/store"
)

const wait = 2 * time.Second

// memCreds is a credential store that also feeds the API client's tokens.
type memCreds struct {
	mu    sync.Mutex
	token string
	saves int
}

func (m *memCreds) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memCreds) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.saves++
	return nil
}

func (m *memCreds) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func (m *memCreds) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return nil, nil
	}
	return &oauth2.Token{AccessToken: m.token}, nil
}

type harness struct {
	backend *fakebackend.Backend
	store   *store.Store
	client  *api.Client
	creds   *memCreds
	orders  *store.Orders
	admin   *store.Admin
}

func newHarness(t *testing.T, opts ...store.Option) *harness {
	t.Helper()
	b := fakebackend.New()
	t.Cleanup(b.Close)
	s := store.New(opts...)
	creds := &memCreds{}
	client := api.New(b.URL(),
		api.WithTokenStore(creds),
		api.WithUnauthorizedHandler(s.UnauthorizedHandler()))
	return &harness{
		backend: b,
		store:   s,
		client:  client,
		creds:   creds,
		orders:  store.NewOrders(s, client),
		admin:   store.NewAdmin(s, client, creds),
	}
}

func waitFor(t *testing.T, s *store.Store, what string, cond func(store.State) bool) store.State {
	t.Helper()
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if st := s.State(); cond(st) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
	return store.State{}
}

func booking() order.Request {
	return order.Request{
		VehicleNumber:   "12-345-67",
		VehicleType:     "sedan",
		ServiceType:     "exterior",
		RequestedAt:     time.Now().Add(2 * time.Hour),
		LocationLat:     32.08,
		LocationLng:     34.78,
		LocationAddress: "Rothschild 10",
		DirtLevel:       3,
		CustomerEmail:   "dana@example.com",
	}
}

func TestBookingWithLiveTracking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	conn := realtime.New(h.backend.SocketURL())
	if err := conn.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	bridge := store.BindRealtime(conn, h.store)
	defer bridge.Unbind()

	created, err := h.orders.Create(ctx, booking())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	st := h.store.State()
	if !st.Order.Success || st.Order.Current == nil || st.Order.Current.ID != created.ID {
		t.Fatalf("order slice after create = %+v", st.Order)
	}

	if _, err := h.orders.FetchTracking(ctx, created.ID); err != nil {
		t.Fatalf("FetchTracking: %v", err)
	}
	logsBefore := len(h.store.State().Order.Tracking.Logs)

	stop := bridge.Watch(created.ID)
	defer stop()
	if !h.backend.WaitForMembers(created.ID.String(), 1, wait) {
		t.Fatal("subscription never reached the server")
	}

	if _, err := h.client.UpdateOrderStatus(ctx, created.ID, order.StatusOnWay, "leaving depot"); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}

	st = waitFor(t, h.store, "real-time status", func(st store.State) bool {
		return st.Order.Tracking != nil && st.Order.Tracking.Order.Status == order.StatusOnWay
	})
	if st.Order.Current.Status != order.StatusOnWay {
		t.Errorf("current status = %s", st.Order.Current.Status)
	}
	if got := len(st.Order.Tracking.Logs); got != logsBefore+1 {
		t.Errorf("logs = %d, want %d", got, logsBefore+1)
	}
	if st.Order.Tracking.Logs[0].Notes != order.RealtimeNote {
		t.Errorf("head entry = %+v", st.Order.Tracking.Logs[0])
	}
	if st.UI.Snackbar.Message != order.StatusMessage(order.StatusOnWay) || st.UI.Snackbar.Severity != store.SeverityInfo {
		t.Errorf("snackbar = %+v", st.UI.Snackbar)
	}

	stop()
	stop()
	if !h.backend.WaitForMembers(created.ID.String(), 0, wait) {
		t.Error("leave never reached the server")
	}
}

func TestOrderCreatedNotification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	conn := realtime.New(h.backend.SocketURL())
	if err := conn.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	store.BindRealtime(conn, h.store)
	if !h.backend.WaitForClients(1, wait) {
		t.Fatal("client never connected")
	}

	h.backend.Broadcast("", realtime.EventOrderCreated, map[string]any{"orderId": 77, "serviceType": "full"})
	st := waitFor(t, h.store, "order-created banner", func(st store.State) bool { return st.UI.Snackbar.Open })
	if st.UI.Snackbar.Message != "New order #77 created" {
		t.Errorf("snackbar = %+v", st.UI.Snackbar)
	}
	if st.Order.Current != nil {
		t.Error("order-created mutated the order slice")
	}
}

func TestCreateRejected(t *testing.T) {
	h := newHarness(t)
	h.backend.Respond(http.MethodPost, "/api/orders", http.StatusBadRequest, map[string]any{"error": "Missing required fields"})

	_, err := h.orders.Create(context.Background(), booking())
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	st := h.store.State()
	if st.Order.Error == nil || st.Order.Error.Message != "Missing required fields" || st.Order.Success || st.Order.Loading {
		t.Errorf("order slice = %+v", st.Order)
	}
}

func TestInvalidLogin(t *testing.T) {
	h := newHarness(t)
	_, err := h.admin.Login(context.Background(), admin.Credentials{Email: fakebackend.AdminEmail, Password: "wrong"})
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if h.creds.saves != 0 || h.creds.token != "" {
		t.Error("credential persisted after a rejected login")
	}
	st := h.store.State()
	if st.Admin.IsAuthenticated {
		t.Error("authenticated after a rejected login")
	}
	if st.Admin.Error == nil || st.Admin.Error.Status != http.StatusUnauthorized || len(st.Admin.Error.Payload) == 0 {
		t.Errorf("admin error = %+v", st.Admin.Error)
	}
}

func TestAdminSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.admin.Login(ctx, admin.Credentials{Email: fakebackend.AdminEmail, Password: fakebackend.AdminPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != fakebackend.AdminToken || h.creds.token != fakebackend.AdminToken {
		t.Fatalf("token = %q persisted %q", res.Token, h.creds.token)
	}
	if st := h.store.State(); !st.Admin.IsAuthenticated || !st.Admin.Verified || st.Admin.Profile == nil {
		t.Fatalf("admin = %+v", st.Admin)
	}

	h.backend.AddOrder(order.Order{VehicleNumber: "11-111-11", Status: order.StatusPending})
	target := h.backend.AddOrder(order.Order{VehicleNumber: "22-222-22", Status: order.StatusAssigned})

	orders, err := h.admin.FetchOrders(ctx, admin.OrderFilter{})
	if err != nil || len(orders) != 2 {
		t.Fatalf("FetchOrders = %d, %v", len(orders), err)
	}
	if _, err := h.admin.UpdateOrderStatus(ctx, target, order.StatusWashing, ""); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	for _, o := range h.store.State().Admin.Orders {
		want := order.StatusPending
		if o.ID == target {
			want = order.StatusWashing
		}
		if o.Status != want {
			t.Errorf("order %s status = %s, want %s", o.ID, o.Status, want)
		}
	}

	if _, err := h.admin.FetchFleet(ctx); err != nil {
		t.Fatalf("FetchFleet: %v", err)
	}
	busy := false
	if _, err := h.admin.UpdateFleetUnit(ctx, "1", fleet.Update{IsAvailable: &busy}); err != nil {
		t.Fatalf("UpdateFleetUnit: %v", err)
	}
	for _, u := range h.store.State().Admin.Fleet {
		if u.ID == "1" && (bool(u.IsAvailable) || u.Name != "Mobile Unit Alpha") {
			t.Errorf("unit 1 = %+v", u)
		}
	}

	page, err := h.admin.FetchLogs(ctx, admin.LogQuery{})
	if err != nil {
		t.Fatalf("FetchLogs: %v", err)
	}
	if st := h.store.State(); st.Admin.LogsPagination != page.Pagination {
		t.Errorf("pagination = %+v", st.Admin.LogsPagination)
	}

	if err := h.admin.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	st := h.store.State()
	if st.Admin.IsAuthenticated || st.Admin.Orders != nil || st.Admin.Fleet != nil || h.creds.token != "" {
		t.Errorf("after logout admin = %+v creds=%q", st.Admin, h.creds.token)
	}
}

func TestVerifySession(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		h := newHarness(t)
		_ = h.creds.Save(fakebackend.AdminToken)
		if _, err := h.admin.InitializeAuth(); err != nil {
			t.Fatal(err)
		}
		if st := h.store.State(); !st.Admin.IsAuthenticated || st.Admin.Verified {
			t.Fatalf("admin before verify = %+v", st.Admin)
		}
		if err := h.admin.VerifySession(context.Background()); err != nil {
			t.Fatalf("VerifySession: %v", err)
		}
		st := h.store.State()
		if !st.Admin.Verified || len(st.Admin.Dashboard) == 0 {
			t.Errorf("admin after verify = %+v", st.Admin)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		h := newHarness(t)
		if err := h.admin.SetToken("expired"); err != nil {
			t.Fatal(err)
		}
		err := h.admin.VerifySession(context.Background())
		if !errors.Is(err, api.ErrUnauthorized) {
			t.Fatalf("err = %v", err)
		}
		st := h.store.State()
		if st.Admin.IsAuthenticated || st.Admin.Token != "" {
			t.Errorf("session kept after 401: %+v", st.Admin)
		}
		if st.UI.CurrentPage != store.LoginPage {
			t.Errorf("page = %s", st.UI.CurrentPage)
		}
		if h.creds.token != "" {
			t.Error("rejected credential still persisted")
		}
	})
}

func TestConcurrentDispatch(t *testing.T) {
	s := store.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispatch(store.AddNotification{Notification: store.Notification{Message: "n"}})
		}()
	}
	wg.Wait()
	if got := len(s.State().UI.Notifications); got != 50 {
		t.Errorf("notifications = %d, want 50", got)
	}
}
