// Package fakebackend is an in-memory booking backend for tests. It serves
// the REST surface under /api and the real-time channel under /ws.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/felixgeelhaar/carwash/pkg/domain/fleet"
	"github.com/felixgeelhaar/carwash/pkg/domain/order"
)

// Demo operator credentials accepted by the login endpoint.
const (
	AdminEmail    = "admin@carwash.com"
	AdminPassword = "password"
	AdminToken    = "test-token"
)

// Recorded is one request the backend received.
type Recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

type override struct {
	status int
	body   any
}

// Backend is a running fake backend.
type Backend struct {
	mu        sync.Mutex
	orders    map[order.ID]*order.Order
	logs      []order.ActivityLogEntry
	units     []*fleet.Unit
	images    map[string]map[string]any
	nextOrder int
	nextLog   int64
	requests  []Recorded
	overrides map[string]override

	hub    *hub
	server *httptest.Server
}

// New starts a backend seeded with two service units.
func New() *Backend {
	b := &Backend{
		orders:    make(map[order.ID]*order.Order),
		images:    make(map[string]map[string]any),
		overrides: make(map[string]override),
		nextOrder: 1,
		nextLog:   1,
		hub:       newHub(),
	}
	b.units = []*fleet.Unit{
		{ID: "1", Name: "Mobile Unit Alpha", IsAvailable: true, LocationLat: 32.0853, LocationLng: 34.7818},
		{ID: "2", Name: "Mobile Unit Beta", IsAvailable: true, LocationLat: 32.1093, LocationLng: 34.8555},
	}
	b.server = httptest.NewServer(b.routes())
	return b
}

// URL is the REST base URL, including the /api prefix.
func (b *Backend) URL() string {
	return b.server.URL + "/api"
}

// SocketURL is the websocket endpoint.
func (b *Backend) SocketURL() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http") + "/ws"
}

// Close stops the server and drops every websocket client.
func (b *Backend) Close() {
	b.hub.closeAll()
	b.server.Close()
}

// Respond makes the next requests to method+path return status and body
// until Reset is called.
func (b *Backend) Respond(method, path string, status int, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = override{status: status, body: body}
}

// Reset removes every override.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides = make(map[string]override)
}

// Requests returns the requests received so far.
func (b *Backend) Requests() []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// LastRequest returns the most recent request for method and path.
func (b *Backend) LastRequest(method, path string) (Recorded, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if b.requests[i].Method == method && b.requests[i].Path == path {
			return b.requests[i], true
		}
	}
	return Recorded{}, false
}

// AddOrder seeds an order and returns its id.
func (b *Backend) AddOrder(o order.Order) order.ID {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = order.ID(strconv.Itoa(b.nextOrder))
		b.nextOrder++
	}
	if o.Status == "" {
		o.Status = order.StatusPending
	}
	b.orders[o.ID] = &o
	b.appendLog(o.ID, o.Status, "Order created")
	return o.ID
}

// Order returns the stored order.
func (b *Backend) Order(id order.ID) (order.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return order.Order{}, false
	}
	return *o, true
}

// Broadcast sends an event to the clients that joined room. An empty room
// reaches every client.
func (b *Backend) Broadcast(room, eventType string, data any) {
	b.hub.broadcast(room, eventType, data)
}

// WaitForMembers blocks until room has n members or the timeout passes.
func (b *Backend) WaitForMembers(room string, n int, timeout time.Duration) bool {
	return b.hub.waitForMembers(room, n, timeout)
}

// WaitForClients blocks until n websocket clients are connected.
func (b *Backend) WaitForClients(n int, timeout time.Duration) bool {
	return b.hub.waitForClients(n, timeout)
}

// Signals returns the join/leave signals received over the socket.
func (b *Backend) Signals() []Signal {
	return b.hub.signalLog()
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.record)

	r.Get("/ws", b.hub.serve)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "OK", "timestamp": time.Now().UTC().Format(time.RFC3339)})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", b.createOrder)
			r.Post("/estimate", b.estimate)
			r.Get("/{id}", b.getOrder)
			r.Get("/{id}/track", b.track)
			r.Patch("/{id}/status", b.updateStatus(false))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", b.login)
			r.Group(func(r chi.Router) {
				r.Use(b.requireToken)
				r.Get("/dashboard", b.dashboard)
				r.Get("/logs", b.activityLogs)
				r.Get("/orders", b.adminOrders)
				r.Get("/mobiles", b.listUnits(false))
				r.Patch("/orders/{id}/status", b.updateStatus(true))
				r.Patch("/mobiles/{id}", b.updateUnit)
			})
		})

		r.Route("/mobiles", func(r chi.Router) {
			r.Get("/", b.listUnits(false))
			r.Get("/available", b.listUnits(true))
			r.Get("/{id}", b.getUnit)
			r.Patch("/{id}/location", b.unitLocation)
			r.Patch("/{id}/availability", b.unitAvailability)
		})

		r.Route("/upload/vehicle-image", func(r chi.Router) {
			r.Post("/", b.upload)
			r.Get("/{filename}", b.imageInfo)
			r.Delete("/{filename}", b.deleteImage)
		})
	})
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(strings.NewReader(string(body)))
		}
		b.mu.Lock()
		b.requests = append(b.requests, Recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		ov, ok := b.overrides[r.Method+" "+r.URL.Path]
		b.mu.Unlock()
		if ok {
			writeJSON(w, ov.status, ov.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+AdminToken {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// appendLog records a status change. Callers hold b.mu.
func (b *Backend) appendLog(id order.ID, status order.Status, notes string) {
	entry := order.ActivityLogEntry{
		ID:        b.nextLog,
		OrderID:   id,
		Status:    status,
		Notes:     notes,
		Timestamp: time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	if o, ok := b.orders[id]; ok {
		entry.VehicleNumber = o.VehicleNumber
		entry.MobileName = o.MobileName
	}
	b.nextLog++
	b.logs = append([]order.ActivityLogEntry{entry}, b.logs...)
}

// assignUnit hands o to the first free unit. Orders stay pending until an
// operator moves them to assigned. The caller holds b.mu.
func (b *Backend) assignUnit(o *order.Order) {
	if o.MobileName != "" {
		return
	}
	for _, u := range b.units {
		if u.IsAvailable {
			o.MobileName = u.Name
			u.IsAvailable = false
			u.CurrentOrderID = o.ID
			return
		}
	}
}

func (b *Backend) findUnit(id fleet.ID) *fleet.Unit {
	for _, u := range b.units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func quote(dirt int, serviceType string) (float64, int) {
	price := 50.0 + float64(dirt)*10
	var addOns []string
	for _, part := range strings.Split(serviceType, "+") {
		switch part {
		case "interior":
			price += 30
		case "polish":
			price += 40
			addOns = append(addOns, part)
		case "wax":
			price += 25
			addOns = append(addOns, part)
		}
	}
	return price, order.EstimateDuration(dirt, addOns)
}

type bookingBody struct {
	VehicleNumber     string  `json:"vehicle_number"`
	VehicleType       string  `json:"vehicle_type"`
	ServiceType       string  `json:"service_type"`
	RequestedDatetime string  `json:"requested_datetime"`
	LocationLat       float64 `json:"location_lat"`
	LocationLng       float64 `json:"location_lng"`
	LocationAddress   string  `json:"location_address"`
	VehicleImage      string  `json:"vehicle_image"`
	DirtLevel         int     `json:"dirt_level"`
	CustomerName      string  `json:"customer_name"`
	CustomerPhone     string  `json:"customer_phone"`
	CustomerEmail     string  `json:"customer_email"`
}

func (b *Backend) createOrder(w http.ResponseWriter, r *http.Request) {
	var in bookingBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.VehicleNumber == "" || in.ServiceType == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	price, duration := quote(in.DirtLevel, in.ServiceType)

	b.mu.Lock()
	id := order.ID(strconv.Itoa(b.nextOrder))
	b.nextOrder++
	o := &order.Order{
		ID:              id,
		VehicleNumber:   in.VehicleNumber,
		VehicleType:     in.VehicleType,
		VehicleImage:    in.VehicleImage,
		ServiceType:     in.ServiceType,
		DirtLevel:       in.DirtLevel,
		Price:           price,
		DurationMinutes: duration,
		Status:          order.StatusPending,
		RequestedAt:     in.RequestedDatetime,
		CreatedAt:       time.Now().UTC().Format("2006-01-02 15:04:05"),
		LocationLat:     in.LocationLat,
		LocationLng:     in.LocationLng,
		LocationAddress: in.LocationAddress,
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerEmail:   in.CustomerEmail,
		InvoicePath:     fmt.Sprintf("/invoices/order_%s.pdf", id),
	}
	b.orders[id] = o
	b.appendLog(id, order.StatusPending, "Order created")
	b.mu.Unlock()

	b.hub.broadcast("", "order-created", map[string]any{"orderId": json.Number(id), "serviceType": o.ServiceType, "price": price})
	writeJSON(w, http.StatusCreated, map[string]any{
		"orderId":           json.Number(id),
		"vehicleNumber":     o.VehicleNumber,
		"vehicleType":       o.VehicleType,
		"serviceType":       o.ServiceType,
		"dirtLevel":         o.DirtLevel,
		"price":             price,
		"duration":          duration,
		"requestedDateTime": o.RequestedAt,
		"status":            o.Status,
		"pdfPath":           o.InvoicePath,
	})
}

func (b *Backend) estimate(w http.ResponseWriter, r *http.Request) {
	var in bookingBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	price, duration := quote(in.DirtLevel, in.ServiceType)
	writeJSON(w, http.StatusOK, map[string]any{"price": price, "duration": duration})
}

func (b *Backend) getOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := b.Order(order.ID(chi.URLParam(r, "id")))
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (b *Backend) track(w http.ResponseWriter, r *http.Request) {
	id := order.ID(chi.URLParam(r, "id"))
	b.mu.Lock()
	o, ok := b.orders[id]
	var snap order.TrackingSnapshot
	if ok {
		snap.Order = *o.Clone()
		if o.MobileName != "" {
			summary := &order.UnitSummary{Name: o.MobileName}
			for _, u := range b.units {
				if u.Name == o.MobileName {
					summary.Location = &order.Coordinate{Lat: u.LocationLat, Lng: u.LocationLng}
				}
			}
			snap.Order.Mobile = summary
		}
		snap.Logs = []order.ActivityLogEntry{}
		for _, e := range b.logs {
			if e.OrderID == id {
				snap.Logs = append(snap.Logs, e)
			}
		}
	}
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (b *Backend) updateStatus(adminRoute bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := order.ID(chi.URLParam(r, "id"))
		var in struct {
			Status order.Status `json:"status"`
			Notes  string       `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || !in.Status.IsValid() {
			writeError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		b.mu.Lock()
		o, ok := b.orders[id]
		if ok {
			o.Status = in.Status
			if in.Status == order.StatusAssigned {
				b.assignUnit(o)
			}
			b.appendLog(id, in.Status, in.Notes)
		}
		b.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		data := map[string]any{"orderId": json.Number(id), "status": in.Status}
		b.hub.broadcast(id.String(), "status-update", data)
		if adminRoute {
			b.hub.broadcast("", "admin-status-update", data)
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "Order status updated", "orderId": json.Number(id), "status": in.Status})
	}
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Email != AdminEmail || in.Password != AdminPassword {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": AdminToken,
		"admin": map[string]any{"id": 1, "email": AdminEmail, "name": "Admin"},
	})
}

func (b *Backend) dashboard(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	byStatus := map[order.Status]int{}
	revenue := 0.0
	for _, o := range b.orders {
		byStatus[o.Status]++
		if o.Status == order.StatusCompleted {
			revenue += o.Price
		}
	}
	counts := []map[string]any{}
	for _, s := range order.AllStatuses() {
		if n := byStatus[s]; n > 0 {
			counts = append(counts, map[string]any{"status": s, "count": n})
		}
	}
	available := 0
	for _, u := range b.units {
		if u.IsAvailable {
			available++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"overview": map[string]any{
			"totalOrders":      len(b.orders),
			"totalRevenue":     revenue,
			"availableMobiles": available,
			"totalMobiles":     len(b.units),
		},
		"ordersByStatus": counts,
		"recentOrders":   []any{},
		"mobileStatus":   b.units,
		"dailyRevenue":   []any{},
	})
}

func intParam(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return def
}

func (b *Backend) activityLogs(w http.ResponseWriter, r *http.Request) {
	page := intParam(r, "page", 1)
	limit := intParam(r, "limit", 50)
	filter := order.ID(r.URL.Query().Get("orderId"))

	b.mu.Lock()
	var matched []order.ActivityLogEntry
	for _, e := range b.logs {
		if filter.IsZero() || e.OrderID == filter {
			matched = append(matched, e)
		}
	}
	b.mu.Unlock()

	total := len(matched)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	logs := matched[start:end]
	if logs == nil {
		logs = []order.ActivityLogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs": logs,
		"pagination": map[string]int{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": (total + limit - 1) / limit,
		},
	})
}

func (b *Backend) adminOrders(w http.ResponseWriter, r *http.Request) {
	status := order.Status(r.URL.Query().Get("status"))
	mobile := r.URL.Query().Get("mobileId")
	page := intParam(r, "page", 1)
	limit := intParam(r, "limit", 20)

	b.mu.Lock()
	var list []order.Order
	for _, o := range b.orders {
		if status != "" && o.Status != status {
			continue
		}
		if mobile != "" {
			u := b.findUnit(fleet.ID(mobile))
			if u == nil || u.Name != o.MobileName {
				continue
			}
		}
		list = append(list, *o)
	}
	b.mu.Unlock()

	slices.SortFunc(list, func(a, c order.Order) int {
		ai, _ := strconv.Atoi(a.ID.String())
		ci, _ := strconv.Atoi(c.ID.String())
		return ci - ai
	})
	start := min((page-1)*limit, len(list))
	end := min(start+limit, len(list))
	out := list[start:end]
	if out == nil {
		out = []order.Order{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) listUnits(availableOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		b.mu.Lock()
		out := []fleet.Unit{}
		for _, u := range b.units {
			if availableOnly && !bool(u.IsAvailable) {
				continue
			}
			out = append(out, *u)
		}
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	}
}

func (b *Backend) getUnit(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u := b.findUnit(fleet.ID(chi.URLParam(r, "id")))
	var out fleet.Unit
	if u != nil {
		out = *u
	}
	b.mu.Unlock()
	if u == nil {
		writeError(w, http.StatusNotFound, "Mobile unit not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) updateUnit(w http.ResponseWriter, r *http.Request) {
	id := fleet.ID(chi.URLParam(r, "id"))
	var upd fleet.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	b.mu.Lock()
	u := b.findUnit(id)
	if u != nil {
		*u = upd.Apply(*u)
	}
	b.mu.Unlock()
	if u == nil {
		writeError(w, http.StatusNotFound, "Mobile unit not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mobileId": json.Number(id), "updates": upd})
}

func (b *Backend) unitLocation(w http.ResponseWriter, r *http.Request) {
	var in order.Coordinate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	b.mu.Lock()
	u := b.findUnit(fleet.ID(chi.URLParam(r, "id")))
	if u != nil {
		u.LocationLat, u.LocationLng = in.Lat, in.Lng
	}
	b.mu.Unlock()
	if u == nil {
		writeError(w, http.StatusNotFound, "Mobile unit not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Location updated"})
}

func (b *Backend) unitAvailability(w http.ResponseWriter, r *http.Request) {
	var in fleet.AvailabilityChange
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	b.mu.Lock()
	u := b.findUnit(fleet.ID(chi.URLParam(r, "id")))
	if u != nil {
		u.IsAvailable = fleet.Availability(in.IsAvailable)
		u.AvailableFrom = in.AvailableFrom
	}
	b.mu.Unlock()
	if u == nil {
		writeError(w, http.StatusNotFound, "Mobile unit not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Availability updated"})
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("vehicleImage")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()
	data, _ := io.ReadAll(file)

	name := fmt.Sprintf("vehicle-%d-%s", time.Now().UnixNano(), header.Filename)
	info := map[string]any{
		"filename": name,
		"imageUrl": "/uploads/vehicles/" + name,
		"size":     len(data),
		"mimetype": header.Header.Get("Content-Type"),
	}
	b.mu.Lock()
	b.images[name] = info
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, info)
}

func (b *Backend) imageInfo(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	info, ok := b.images[chi.URLParam(r, "filename")]
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (b *Backend) deleteImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	b.mu.Lock()
	_, ok := b.images[name]
	delete(b.images, name)
	b.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}
