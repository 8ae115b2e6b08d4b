package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/carwash/pkg/domain/order"
	"github.com/felixgeelhaar/carwash/pkg/store"
)

// Styles
var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#1E88E5")).
	PaddingLeft(1).
	PaddingRight(1)

var statusDone = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
var statusWIP = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
var statusErr = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// recentLogs is how many activity entries the live view shows.
const recentLogs = 5

type stateMsg store.State

type trackModel struct {
	id       order.ID
	spinner  spinner.Model
	snapshot *order.TrackingSnapshot
	notice   string
	severity store.Severity
}

func newTrackModel(id order.ID, snap *order.TrackingSnapshot) trackModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusWIP
	return trackModel{id: id, spinner: sp, snapshot: snap}
}

func (m trackModel) Init() tea.Cmd { return m.spinner.Tick }

func (m trackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case stateMsg:
		if tr := msg.Order.Tracking; tr != nil && tr.Order.ID == m.id {
			m.snapshot = tr
		}
		if sb := msg.UI.Snackbar; sb.Open {
			m.notice = sb.Message
			m.severity = sb.Severity
		}
	case spinner.TickMsg:
		if m.final() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m trackModel) final() bool {
	return m.snapshot != nil && m.snapshot.Order.Status.IsFinal()
}

func (m trackModel) View() string {
	if m.snapshot == nil {
		return fmt.Sprintf("%s Loading order #%s...\nPress q to quit.", m.spinner.View(), m.id)
	}
	o := m.snapshot.Order

	header := headerStyle.Render(fmt.Sprintf("Order #%s", o.ID))

	var steps strings.Builder
	for _, step := range order.Steps(o.Status) {
		switch {
		case step.Active && !o.Status.IsFinal():
			steps.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), statusWIP.Render(step.Label)))
		case step.Completed:
			steps.WriteString(statusDone.Render("✓ "+step.Label) + "\n")
		default:
			steps.WriteString(dimStyle.Render("○ "+step.Label) + "\n")
		}
	}
	if o.Status == order.StatusCancelled {
		steps.WriteString(statusErr.Render("✗ Cancelled") + "\n")
	}

	details := fmt.Sprintf("%s  %s", o.VehicleNumber, o.ServiceType)
	if unit := unitName(&o); unit != "" {
		details += fmt.Sprintf("\nUnit: %s", unit)
	}

	var logs strings.Builder
	entries := m.snapshot.Logs
	if len(entries) > recentLogs {
		entries = entries[len(entries)-recentLogs:]
	}
	for _, e := range entries {
		logs.WriteString(dimStyle.Render(fmt.Sprintf("%s  %s  %s", e.Timestamp, e.Status.DisplayName(), e.Notes)) + "\n")
	}

	notice := ""
	if m.notice != "" {
		style := statusWIP
		switch m.severity {
		case store.SeveritySuccess:
			style = statusDone
		case store.SeverityError:
			style = statusErr
		}
		notice = style.Render(m.notice)
	}

	return baseStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			details,
			"",
			steps.String(),
			"Activity:",
			logs.String(),
			notice,
			dimStyle.Render("Press q to quit."),
		),
	)
}

// runTrackView runs the live view, feeding it every store change.
func runTrackView(ctx context.Context, s *store.Store, id order.ID) error {
	p := tea.NewProgram(newTrackModel(id, s.State().Order.Tracking), tea.WithContext(ctx))
	s.Dispatch(store.OpenModal{Name: store.ModalOrderTracking})
	defer s.Dispatch(store.CloseModal{Name: store.ModalOrderTracking})

	unsubscribe := s.Subscribe(func(st store.State) { p.Send(stateMsg(st)) })
	defer unsubscribe()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tracking view failed: %w", err)
	}
	return nil
}
