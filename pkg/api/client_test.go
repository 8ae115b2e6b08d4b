package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/carwash/internal/testsupport/fakebackend"
	"github.com/felixgeelhaar/carwash/pkg/api"
	"github.com/felixgeelhaar/carwash/pkg/domain/admin"
	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

type memTokens struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (m *memTokens) Token() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return nil, nil
	}
	return &oauth2.Token{AccessToken: m.token}, nil
}

func (m *memTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.cleared++
	return nil
}

func booking() order.Request {
	return order.Request{
		VehicleNumber:      "12-345-67",
		VehicleType:        "sedan",
		ServiceType:        "exterior",
		AdditionalServices: []string{"wax"},
		RequestedAt:        time.Now().Add(time.Hour),
		LocationLat:        32.08,
		LocationLng:        34.78,
		LocationAddress:    "Rothschild 10",
		DirtLevel:          2,
		CustomerEmail:      "dana@example.com",
	}
}

func TestCreateOrder(t *testing.T) {
	b := fakebackend.New()
	defer b.Close()
	c := api.New(b.URL())

	o, err := c.CreateOrder(context.Background(), booking())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.ID != "1" {
		t.Errorf("ID = %q", o.ID)
	}
	if o.ServiceType != "exterior+wax" {
		t.Errorf("ServiceType = %q", o.ServiceType)
	}
	if o.InvoicePath == "" || o.Status != order.StatusPending || o.Mobile != nil {
		t.Errorf("create response not fully decoded: %+v", o)
	}
	if o.DurationMinutes != order.EstimateDuration(2, []string{"wax"}) {
		t.Errorf("DurationMinutes = %d", o.DurationMinutes)
	}

	rec, ok := b.LastRequest(http.MethodPost, "/api/orders")
	if !ok {
		t.Fatal("request not recorded")
	}
	if rec.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if rec.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rec.Header.Get("Content-Type"))
	}
	var sent map[string]any
	if err := json.Unmarshal(rec.Body, &sent); err != nil {
		t.Fatal(err)
	}
	if sent["service_type"] != "exterior+wax" {
		t.Errorf("sent service_type = %v", sent["service_type"])
	}
}

func TestEstimateAndTracking(t *testing.T) {
	b := fakebackend.New()
	defer b.Close()
	c := api.New(b.URL())
	ctx := context.Background()

	est, err := c.EstimatePrice(ctx, booking())
	if err != nil {
		t.Fatalf("EstimatePrice: %v", err)
	}
	if est.Price <= 0 || est.DurationMinutes != 60 {
		t.Errorf("estimate = %+v", est)
	}

	created, err := c.CreateOrder(ctx, booking())
	if err != nil {
		t.Fatal(err)
	}
	snap, err := c.GetTracking(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTracking: %v", err)
	}
	if snap.Order.ID != created.ID || snap.Order.Status != order.StatusPending || len(snap.Logs) == 0 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Order.Mobile != nil {
		t.Errorf("pending order has a unit: %+v", snap.Order.Mobile)
	}

	if _, err := c.UpdateOrderStatus(ctx, created.ID, order.StatusAssigned, ""); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	snap, err = c.GetTracking(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTracking: %v", err)
	}
	if snap.Order.Mobile == nil || snap.Order.Mobile.Location == nil {
		t.Errorf("tracking should carry unit location: %+v", snap.Order.Mobile)
	}

	change, err := c.UpdateOrderStatus(ctx, created.ID, order.StatusOnWay, "left depot")
	if err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if change.OrderID != created.ID || change.Status != order.StatusOnWay {
		t.Errorf("change = %+v", change)
	}
	rec, _ := b.LastRequest(http.MethodPatch, "/api/orders/"+created.ID.String()+"/status")
	if !bytes.Contains(rec.Body, []byte(`"notes":"left depot"`)) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestNotFoundCarriesServerPayload(t *testing.T) {
	b := fakebackend.New()
	defer b.Close()
	c := api.New(b.URL())

	_, err := c.GetOrder(context.Background(), "999")
	if !errors.Is(err, api.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *api.Error, got %T", err)
	}
	if apiErr.Message != "Order not found" || apiErr.Status != 404 {
		t.Errorf("error = %+v", apiErr)
	}
	if !strings.Contains(string(apiErr.Payload), "Order not found") {
		t.Errorf("payload = %s", apiErr.Payload)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	b := fakebackend.New()
	defer b.Close()
	tokens := &memTokens{token: fakebackend.AdminToken}
	c := api.New(b.URL(), api.WithTokenStore(tokens))

	d, err := c.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	sections, err := d.Sections()
	if err != nil || sections["overview"] == nil {
		t.Errorf("dashboard sections = %v, %v", sections, err)
	}
	rec, _ := b.LastRequest(http.MethodGet, "/api/admin/dashboard")
	if got := rec.Header.Get("Authorization"); got != "Bearer "+fakebackend.AdminToken {
		t.Errorf("Authorization = %q", got)
	}
}

func TestUnauthorizedEvictsTokenAndCallsHook(t *testing.T) {
	b := fakebackend.New()
	defer b.Close()
	tokens := &memTokens{token: "stale"}
	var redirected atomic.Int32
	c := api.New(b.URL(),
		api.WithTokenStore(tokens),
		api.WithUnauthorizedHandler(func() { redirected.Add(1) }),
	)

	_, err := c.AdminFleet(context.Background())
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if tokens.cleared != 1 || tokens.token != "" {
		t.Errorf("token not cleared: %+v", tokens)
	}
	if redirected.Load() != 1 {
		t.Errorf("hook called %d times", redirected.Load())
	}

	// Login failures are 401s as well.
	_, err = c.Login(context.Background(), admin.Credentials{Email: "x@y.z", Password: "nope"})
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if redirected.Load() != 2 {
		t.Errorf("hook called %d times", redirected.Load())
	}
}

func TestAdminQueries(t *testing.T) {
	b := fakebackend.New()
	defer b.Close()
	c := api.New(b.URL(), api.WithTokenStore(&memTokens{token: fakebackend.AdminToken}))
	ctx := context.Background()
	b.AddOrder(order.Order{VehicleNumber: "111111", Status: order.StatusWashing})
	b.AddOrder(order.Order{VehicleNumber: "222222", Status: order.StatusPending})

	page, err := c.ActivityLogs(ctx, admin.LogQuery{})
	if err != nil {
		t.Fatalf("ActivityLogs: %v", err)
	}
	if len(page.Logs) != 2 || page.Pagination.Limit != 50 {
		t.Errorf("page = %+v", page)
	}
	rec, _ := b.LastRequest(http.MethodGet, "/api/admin/logs")
	if rec.Query != "limit=50&page=1" {
		t.Errorf("logs query = %q", rec.Query)
	}

	if _, err := c.ActivityLogs(ctx, admin.LogQuery{Page: 2, Limit: 5, OrderID: "1"}); err != nil {
		t.Fatal(err)
	}
	rec, _ = b.LastRequest(http.MethodGet, "/api/admin/logs")
	if rec.Query != "limit=5&orderId=1&page=2" {
		t.Errorf("logs query = %q", rec.Query)
	}

	orders, err := c.AdminOrders(ctx, admin.OrderFilter{Status: order.StatusWashing})
	if err != nil {
		t.Fatalf("AdminOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].VehicleNumber != "111111" {
		t.Errorf("orders = %+v", orders)
	}
	rec, _ = b.LastRequest(http.MethodGet, "/api/admin/orders")
	if rec.Query != "limit=20&page=1&status=washing" {
		t.Errorf("orders query = %q", rec.Query)
	}

	change, err := c.UpdateOrderStatusAdmin(ctx, "1", order.StatusCompleted, "")
	if err != nil {
		t.Fatalf("UpdateOrderStatusAdmin: %v", err)
	}
	if change.Status != order.StatusCompleted {
		t.Errorf("change = %+v", change)
	}
}

func TestFleetEndpoints(t *testing.T) {
	b := fakebackend.New()
	defer b.Close()
	c := api.New(b.URL(), api.WithTokenStore(&memTokens{token: fakebackend.AdminToken}))
	ctx := context.Background()

	units, err := c.Mobiles(ctx)
	if err != nil || len(units) != 2 {
		t.Fatalf("Mobiles = %v, %v", units, err)
	}

	avail := false
	res, err := c.UpdateFleetUnit(ctx, "2", fleet.Update{IsAvailable: &avail})
	if err != nil {
		t.Fatalf("UpdateFleetUnit: %v", err)
	}
	if res.MobileID != "2" || res.Updates.IsAvailable == nil || *res.Updates.IsAvailable {
		t.Errorf("result = %+v", res)
	}

	free, err := c.AvailableMobiles(ctx, 32.08, 34.78)
	if err != nil {
		t.Fatal(err)
	}
	if len(free) != 1 || free[0].ID != "1" {
		t.Errorf("available = %+v", free)
	}
	rec, _ := b.LastRequest(http.MethodGet, "/api/mobiles/available")
	if rec.Query != "lat=32.08&lng=34.78" {
		t.Errorf("query = %q", rec.Query)
	}

	if err := c.UpdateMobileLocation(ctx, "1", order.Coordinate{Lat: 1.5, Lng: 2.5}); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateMobileAvailability(ctx, "1", fleet.AvailabilityChange{IsAvailable: false}); err != nil {
		t.Fatal(err)
	}
	u, err := c.Mobile(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if u.LocationLat != 1.5 || bool(u.IsAvailable) {
		t.Errorf("unit = %+v", u)
	}
	if _, err := c.Mobile(ctx, "77"); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUploadLifecycle(t *testing.T) {
	b := fakebackend.New()
	defer b.Close()
	c := api.New(b.URL())
	ctx := context.Background()

	img, err := c.UploadVehicleImage(ctx, "car.jpg", strings.NewReader("jpegdata"))
	if err != nil {
		t.Fatalf("UploadVehicleImage: %v", err)
	}
	if img.ImageURL == "" || img.Size != 8 {
		t.Errorf("image = %+v", img)
	}
	rec, _ := b.LastRequest(http.MethodPost, "/api/upload/vehicle-image")
	if !strings.HasPrefix(rec.Header.Get("Content-Type"), "multipart/form-data") {
		t.Errorf("Content-Type = %q", rec.Header.Get("Content-Type"))
	}

	info, err := c.VehicleImageInfo(ctx, img.Filename)
	if err != nil || info.Filename != img.Filename {
		t.Fatalf("VehicleImageInfo = %+v, %v", info, err)
	}
	if err := c.DeleteVehicleImage(ctx, img.Filename); err != nil {
		t.Fatal(err)
	}
	if _, err := c.VehicleImageInfo(ctx, img.Filename); !errors.Is(err, api.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	b := fakebackend.New()
	defer b.Close()
	h, err := api.New(b.URL()).Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != "OK" {
		t.Errorf("status = %q", h.Status)
	}
}

func TestGenericFailures(t *testing.T) {
	t.Run("non-json error body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer srv.Close()

		_, err := api.New(srv.URL).Health(context.Background())
		var apiErr *api.Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *api.Error, got %v", err)
		}
		if apiErr.Message != "request failed with status 502" || apiErr.Payload != nil {
			t.Errorf("error = %+v", apiErr)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := api.New(srv.URL, api.WithTimeout(50*time.Millisecond)).Health(context.Background())
		var apiErr *api.Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *api.Error, got %v", err)
		}
		if apiErr.Status != 0 {
			t.Errorf("timeout should have no status, got %d", apiErr.Status)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := api.New(url).Health(context.Background())
		var apiErr *api.Error
		if !errors.As(err, &apiErr) || apiErr.Status != 0 {
			t.Fatalf("expected transport *api.Error, got %v", err)
		}
	})
}

type flakyTransport struct {
	failures atomic.Int32
	calls    atomic.Int32
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return nil, errors.New("connection reset")
	}
	return f.next.RoundTrip(r)
}

func TestRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if strings.HasPrefix(r.URL.Path, "/broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))
	defer srv.Close()

	t.Run("transport failures are retried", func(t *testing.T) {
		ft := &flakyTransport{next: http.DefaultTransport}
		ft.failures.Store(2)
		c := api.New(srv.URL,
			api.WithHTTPClient(&http.Client{Transport: ft}),
			api.WithRetry(3, time.Millisecond),
		)
		if _, err := c.Health(context.Background()); err != nil {
			t.Fatalf("Health: %v", err)
		}
		if ft.calls.Load() != 3 {
			t.Errorf("calls = %d, want 3", ft.calls.Load())
		}
	})

	t.Run("no retry by default", func(t *testing.T) {
		ft := &flakyTransport{next: http.DefaultTransport}
		ft.failures.Store(1)
		c := api.New(srv.URL, api.WithHTTPClient(&http.Client{Transport: ft}))
		if _, err := c.Health(context.Background()); err == nil {
			t.Fatal("expected failure without retry")
		}
		if ft.calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", ft.calls.Load())
		}
	})

	t.Run("http errors are not retried", func(t *testing.T) {
		hits.Store(0)
		c := api.New(srv.URL+"/broken", api.WithRetry(3, time.Millisecond))
		_, _ = c.Health(context.Background())
		if hits.Load() != 1 {
			t.Errorf("hits = %d, want 1", hits.Load())
		}
	})
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingObserver) ObserveRequest(op string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func TestObserver(t *testing.T) {
	b := fakebackend.New()
	defer b.Close()
	obs := &recordingObserver{}
	c := api.New(b.URL(), api.WithObserver(obs))
	_, _ = c.Health(context.Background())
	_, _ = c.GetOrder(context.Background(), "5")
	if len(obs.ops) != 2 || obs.ops[0] != "health" || obs.ops[1] != "get_order" {
		t.Errorf("ops = %v", obs.ops)
	}
}
