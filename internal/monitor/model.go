// Package monitor is a terminal view of relay traffic.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ayusman/gestos/internal/relay"
)

// MaxEvents is the number of events kept on screen.
const MaxEvents = 15

const linkPoll = 500 * time.Millisecond

// EnvelopeMsg carries one relay message into the model.
type EnvelopeMsg struct {
	Envelope relay.Envelope
	Received time.Time
}

// LinkMsg reports the relay connection state.
type LinkMsg struct {
	Connected bool
}

// SourceClosedMsg is sent when the message channel closes.
type SourceClosedMsg struct{}

type tickMsg time.Time

type entry struct {
	env relay.Envelope
	at  time.Time
}

// Model shows the most recent relay events, per-kind counts and link state.
type Model struct {
	source    <-chan relay.Envelope
	connected func() bool
	addr      string
	now       func() time.Time

	events []entry
	counts map[string]int
	total  int
	link   bool
	width  int
	closed bool
}

// New creates a Model reading from source. connected reports link state.
func New(addr string, source <-chan relay.Envelope, connected func() bool) Model {
	return Model{
		source:    source,
		connected: connected,
		addr:      addr,
		now:       time.Now,
		counts:    make(map[string]int),
	}
}

// Init starts listening and polling the link.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEnvelope(m.source), tick())
}

func waitForEnvelope(source <-chan relay.Envelope) tea.Cmd {
	if source == nil {
		return nil
	}
	return func() tea.Msg {
		env, ok := <-source
		if !ok {
			return SourceClosedMsg{}
		}
		return EnvelopeMsg{Envelope: env, Received: time.Now()}
	}
}

func tick() tea.Cmd {
	return tea.Tick(linkPoll, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "c":
			m.events = nil
			m.counts = make(map[string]int)
			m.total = 0
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case EnvelopeMsg:
		m.add(msg)
		return m, waitForEnvelope(m.source)

	case SourceClosedMsg:
		m.closed = true
		m.link = false
		return m, tea.Quit

	case LinkMsg:
		m.link = msg.Connected

	case tickMsg:
		if m.connected != nil {
			m.link = m.connected()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) add(msg EnvelopeMsg) {
	at := msg.Envelope.At
	if at.IsZero() {
		at = msg.Received
	}
	m.events = append(m.events, entry{env: msg.Envelope, at: at})
	if len(m.events) > MaxEvents {
		m.events = m.events[len(m.events)-MaxEvents:]
	}
	m.counts[msg.Envelope.Kind]++
	m.total++
}

// Total returns how many events were received since the last clear.
func (m Model) Total() int { return m.total }

// Counts returns a copy of the per-kind counts.
func (m Model) Counts() map[string]int {
	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

// View renders the screen.
func (m Model) View() string {
	var b strings.Builder

	link := disconnectedStyle.Render("○ disconnected")
	if m.link {
		link = connectedStyle.Render("● connected")
	}
	b.WriteString(titleStyle.Render("gestos relay monitor") + " " + m.addr + " " + link + "\n\n")

	if len(m.events) == 0 {
		b.WriteString(timeStyle.Render("waiting for events...") + "\n")
	}
	for i := len(m.events) - 1; i >= 0; i-- {
		b.WriteString(renderEntry(m.events[i]) + "\n")
	}

	b.WriteString("\n" + countsStyle.Render(m.renderCounts()) + "\n")
	b.WriteString(helpStyle.Render("q quit • c clear"))
	return b.String()
}

func renderEntry(e entry) string {
	source := e.env.Source
	if source == "" {
		source = "event"
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		timeStyle.Render(e.at.Format("15:04:05.000"))+" ",
		kindStyle.Render(e.env.Kind),
		sourceStyle.Render(source),
		formatData(e.env.Data),
	)
}

func (m Model) renderCounts() string {
	if len(m.counts) == 0 {
		return "no events"
	}
	kinds := make([]string, 0, len(m.counts))
	for k := range m.counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds)+1)
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s %d", k, m.counts[k]))
	}
	parts = append(parts, fmt.Sprintf("total %d", m.total))
	return strings.Join(parts, "  ")
}

// formatData renders data as sorted key=value pairs.
func formatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		switch v := data[k].(type) {
		case float64:
			parts[i] = fmt.Sprintf("%s=%.4g", k, v)
		default:
			parts[i] = fmt.Sprintf("%s=%v", k, v)
		}
	}
	return strings.Join(parts, " ")
}

// Run connects a relay client to addr and shows its traffic until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, config relay.ClientConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := relay.NewClient(config)
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	p := tea.NewProgram(New(config.Addr, client.Messages(), client.Connected), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	cancel()
	<-done
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
