package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	pkgtypes "github.com/vietdv277/shotty/pkg/types"
)

// ErrCancelled is returned when the user leaves a selector without choosing
var ErrCancelled = errors.New("selection cancelled")

const (
	listHeight       = 8
	detailLabelWidth = 12
	minWidth         = 60
	maxWidth         = 120
	// Fixed column widths
	colWidthID    = 21
	colWidthState = 15
	colWidthType  = 12
	// cursor(3) + ID + sp(2) + State + sp(2) + Type + sp(2)
	fixedWidth = 3 + colWidthID + 2 + colWidthState + 2 + colWidthType + 2
)

// Action is the command chosen for the highlighted instance
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionStop
	ActionSnapshot
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	case ActionSnapshot:
		return "snapshot"
	default:
		return "none"
	}
}

// listState tracks the cursor and scroll offset of a selector list
type listState struct {
	cursor int
	offset int
	height int
}

func (l *listState) up() {
	if l.cursor > 0 {
		l.cursor--
		if l.cursor < l.offset {
			l.offset = l.cursor
		}
	}
}

func (l *listState) down(n int) {
	if l.cursor < n-1 {
		l.cursor++
		if l.cursor >= l.offset+l.height {
			l.offset = l.cursor - l.height + 1
		}
	}
}

// reset keeps the cursor in range after the list was filtered down to n items
func (l *listState) reset(n int) {
	if l.cursor >= n {
		l.cursor = max(n-1, 0)
	}
	l.offset = 0
}

func (l listState) window(n int) (int, int) {
	return l.offset, min(l.offset+l.height, n)
}

// contentWidth returns the width inside the box borders for a terminal width
func contentWidth(termWidth int) int {
	return min(max(termWidth-2, minWidth), maxWidth)
}

// Model is the bubbletea model for choosing an instance and an action on it
type Model struct {
	instances    []pkgtypes.Instance
	filtered     []pkgtypes.Instance
	list         listState
	search       string
	selected     *pkgtypes.Instance
	action       Action
	quitting     bool
	cancelled    bool
	contentWidth int
}

// NewModel creates a new selector model
func NewModel(instances []pkgtypes.Instance) Model {
	return Model{
		instances:    instances,
		filtered:     instances,
		list:         listState{height: listHeight},
		contentWidth: contentWidth(80),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.contentWidth = contentWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			m.cancelled = true
			return m, tea.Quit

		case tea.KeyEnter:
			return m.choose(ActionNone)

		case tea.KeyCtrlS:
			return m.choose(ActionStart)

		case tea.KeyCtrlX:
			return m.choose(ActionStop)

		case tea.KeyCtrlP:
			return m.choose(ActionSnapshot)

		case tea.KeyUp:
			m.list.up()

		case tea.KeyDown:
			m.list.down(len(m.filtered))

		case tea.KeyBackspace:
			if len(m.search) > 0 {
				m.search = m.search[:len(m.search)-1]
				m.filterInstances()
			}

		case tea.KeyRunes:
			m.search += string(msg.Runes)
			m.filterInstances()
		}
	}

	return m, nil
}

func (m Model) choose(a Action) (tea.Model, tea.Cmd) {
	if len(m.filtered) == 0 {
		return m, nil
	}

	selected := m.filtered[m.list.cursor]
	m.selected = &selected
	m.action = a
	m.quitting = true
	return m, tea.Quit
}

// filterInstances filters the instances based on search query
func (m *Model) filterInstances() {
	if m.search == "" {
		m.filtered = m.instances
	} else {
		query := strings.ToLower(m.search)
		m.filtered = nil
		for _, inst := range m.instances {
			if strings.Contains(strings.ToLower(inst.ID), query) ||
				strings.Contains(strings.ToLower(inst.ProjectOrPlaceholder()), query) ||
				strings.Contains(strings.ToLower(inst.Type), query) ||
				strings.Contains(strings.ToLower(string(inst.State)), query) {
				m.filtered = append(m.filtered, inst)
			}
		}
	}
	m.list.reset(len(m.filtered))
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	w := m.contentWidth

	sb.WriteString(boxRule(TopLeft, TopRight, w))
	sb.WriteString(boxLine(NameStyle.Render(padRight(" > "+m.search, w)), w, w))
	sb.WriteString(boxLine("", 0, w))

	start, end := m.list.window(len(m.filtered))
	for i := start; i < end; i++ {
		sb.WriteString(m.renderInstanceRow(i))
	}
	for i := end - start; i < m.list.height; i++ {
		sb.WriteString(boxLine("", 0, w))
	}

	sb.WriteString(boxLine("", 0, w))
	sb.WriteString(boxRule(LeftT, RightT, w))
	sb.WriteString(m.renderDetailsPanel())
	sb.WriteString(boxRule(BottomLeft, BottomRight, w))
	sb.WriteString(statusBar(fmt.Sprintf("  %d/%d instances", len(m.filtered), len(m.instances)),
		"[^S:start] [^X:stop] [^P:snapshot] [Esc:quit]", w+2))

	return sb.String()
}

func (m Model) renderInstanceRow(idx int) string {
	inst := m.filtered[idx]
	projectWidth := max(m.contentWidth-fixedWidth, 10)

	var line strings.Builder
	if idx == m.list.cursor {
		line.WriteString(" > ")
	} else {
		line.WriteString("   ")
	}

	state := string(inst.State)
	line.WriteString(IDStyle.Render(padRight(inst.ID, colWidthID)))
	line.WriteString("  ")
	line.WriteString(StateStyle(state).Render(padRight(stateIndicator(state)+" "+state, colWidthState)))
	line.WriteString("  ")
	line.WriteString(TextStyle.Render(padRight(inst.Type, colWidthType)))
	line.WriteString("  ")
	line.WriteString(NameStyle.Render(padRight(inst.ProjectOrPlaceholder(), projectWidth)))

	return boxLine(line.String(), fixedWidth+projectWidth, m.contentWidth)
}

func (m Model) renderDetailsPanel() string {
	var sb strings.Builder
	w := m.contentWidth

	sb.WriteString(boxLine(HeaderStyle.Render(padRight(" Instance Details", w)), w, w))
	sb.WriteString(boxLine(MutedStyle.Render(padRight(" "+strings.Repeat(Horizontal, 20), w)), w, w))

	if len(m.filtered) == 0 {
		sb.WriteString(boxLine(MutedStyle.Render(padRight(" No instances found", w)), w, w))
		for i := 0; i < 7; i++ {
			sb.WriteString(boxLine("", 0, w))
		}
		return sb.String()
	}

	inst := m.filtered[m.list.cursor]
	state := string(inst.State)

	details := []struct {
		label string
		value string
		style lipgloss.Style
	}{
		{"ID:", inst.ID, IDStyle},
		{"Project:", inst.ProjectOrPlaceholder(), NameStyle},
		{"State:", stateIndicator(state) + " " + state, StateStyle(state)},
		{"Type:", inst.Type, TextStyle},
		{"AZ:", inst.AZ, TextStyle},
		{"Public DNS:", orDash(inst.PublicDNS), TextStyle},
		{"Volumes:", orDash(strings.Join(inst.VolumeIDs, ", ")), TextStyle},
		{"Launch:", inst.LaunchTime.Format("2006-01-02 15:04:05"), MutedStyle},
	}

	for _, d := range details {
		valueText := d.value
		maxValueWidth := w - 1 - detailLabelWidth
		if runewidth.StringWidth(valueText) > maxValueWidth {
			valueText = runewidth.Truncate(valueText, maxValueWidth, "...")
		}

		line := MutedStyle.Render(" "+padRight(d.label, detailLabelWidth)) + d.style.Render(valueText)
		sb.WriteString(boxLine(line, 1+detailLabelWidth+runewidth.StringWidth(valueText), w))
	}

	return sb.String()
}

// SelectInstance displays an interactive selector for instances and returns the
// highlighted instance together with the chosen action
func SelectInstance(instances []pkgtypes.Instance) (*pkgtypes.Instance, Action, error) {
	if len(instances) == 0 {
		return nil, ActionNone, fmt.Errorf("no instances available")
	}

	finalModel, err := tea.NewProgram(NewModel(instances)).Run()
	if err != nil {
		return nil, ActionNone, fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(Model)
	if result.cancelled {
		return nil, ActionNone, ErrCancelled
	}

	return result.selected, result.action, nil
}
