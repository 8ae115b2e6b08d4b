package store

import (
	"maps"
	"slices"
	"time"
)

// Severity is the tone of a banner or notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Named loading flags and modals present in the initial UI state.
const (
	LoadingGlobal = "global"
	LoadingOrder  = "order"
	LoadingAdmin  = "admin"

	ModalOrderConfirmation = "orderConfirmation"
	ModalOrderTracking     = "orderTracking"
	ModalAdminLogin        = "adminLogin"
)

// Theme names.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Notification is one entry of the notification history.
type Notification struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity,omitempty"`
}

// Snackbar is the single transient banner.
type Snackbar struct {
	Open     bool     `json:"open"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// UIState is the presentation slice. Maps are replaced, never written in place.
type UIState struct {
	SidebarOpen   bool
	CurrentPage   string
	Notifications []Notification
	Theme         string
	Loading       map[string]bool
	Modals        map[string]bool
	Snackbar      Snackbar
}

func initialUIState() UIState {
	return UIState{
		CurrentPage: "home",
		Theme:       ThemeLight,
		Loading: map[string]bool{
			LoadingGlobal: false,
			LoadingOrder:  false,
			LoadingAdmin:  false,
		},
		Modals: map[string]bool{
			ModalOrderConfirmation: false,
			ModalOrderTracking:     false,
			ModalAdminLogin:        false,
		},
		Snackbar: Snackbar{Severity: SeverityInfo},
	}
}

func withFlag(m map[string]bool, key string, v bool) map[string]bool {
	next := maps.Clone(m)
	if next == nil {
		next = make(map[string]bool)
	}
	next[key] = v
	return next
}

func reduceUI(s UIState, a Action) UIState {
	switch a := a.(type) {
	case ToggleSidebar:
		s.SidebarOpen = !s.SidebarOpen
	case SetSidebarOpen:
		s.SidebarOpen = a.Open
	case SetCurrentPage:
		s.CurrentPage = a.Page
	case SetTheme:
		s.Theme = a.Theme
	case AddNotification:
		s.Notifications = append(slices.Clone(s.Notifications), a.Notification)
	case RemoveNotification:
		s.Notifications = slices.DeleteFunc(slices.Clone(s.Notifications), func(n Notification) bool {
			return n.ID == a.ID
		})
	case ClearNotifications:
		s.Notifications = nil
	case SetLoading:
		s.Loading = withFlag(s.Loading, a.Key, a.Loading)
	case SetGlobalLoading:
		s.Loading = withFlag(s.Loading, LoadingGlobal, a.Loading)
	case OpenModal:
		s.Modals = withFlag(s.Modals, a.Name, true)
	case CloseModal:
		s.Modals = withFlag(s.Modals, a.Name, false)
	case ShowSnackbar:
		severity := a.Severity
		if severity == "" {
			severity = SeverityInfo
		}
		s.Snackbar = Snackbar{Open: true, Message: a.Message, Severity: severity}
	case HideSnackbar:
		s.Snackbar.Open = false
	case ResetUI:
		return initialUIState()
	}
	return s
}
