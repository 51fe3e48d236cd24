package ui

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	pkgtypes "github.com/vietdv277/shotty/pkg/types"
)

const (
	profileListHeight  = 10
	profileNameWidth   = 30
	profileRegionWidth = 20
)

// ProfileModel represents the bubbletea model for profile selection
type ProfileModel struct {
	profiles      []pkgtypes.AWSProfile
	filtered      []pkgtypes.AWSProfile
	list          listState
	search        string
	selected      *pkgtypes.AWSProfile
	quitting      bool
	cancelled     bool
	contentWidth  int
	activeProfile string
}

// NewProfileModel creates a new profile selector model
func NewProfileModel(profiles []pkgtypes.AWSProfile, activeProfile string) ProfileModel {
	return ProfileModel{
		profiles:      profiles,
		filtered:      profiles,
		list:          listState{height: profileListHeight},
		contentWidth:  contentWidth(80),
		activeProfile: activeProfile,
	}
}

// Init implements tea.Model
func (m ProfileModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update implements tea.Model
func (m ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if len(m.filtered) > 0 {
				selected := m.filtered[m.list.cursor]
				m.selected = &selected
				m.quitting = true
				return m, tea.Quit
			}

		case tea.KeyUp:
			m.list.up()

		case tea.KeyDown:
			m.list.down(len(m.filtered))

		case tea.KeyBackspace:
			if len(m.search) > 0 {
				m.search = m.search[:len(m.search)-1]
				m.filterProfiles()
			}

		case tea.KeyRunes:
			m.search += string(msg.Runes)
			m.filterProfiles()
		}
	}

	return m, nil
}

func (m *ProfileModel) filterProfiles() {
	if m.search == "" {
		m.filtered = m.profiles
	} else {
		query := strings.ToLower(m.search)
		m.filtered = nil
		for _, p := range m.profiles {
			if strings.Contains(strings.ToLower(p.Name), query) ||
				strings.Contains(strings.ToLower(p.Region), query) {
				m.filtered = append(m.filtered, p)
			}
		}
	}
	m.list.reset(len(m.filtered))
}

// View implements tea.Model
func (m ProfileModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	w := m.contentWidth

	sb.WriteString(boxRule(TopLeft, TopRight, w))
	sb.WriteString(boxLine(HeaderStyle.Render(padRight(" Select AWS Profile", w)), w, w))
	sb.WriteString(boxRule(LeftT, RightT, w))
	sb.WriteString(boxLine(NameStyle.Render(padRight(" > "+m.search, w)), w, w))
	sb.WriteString(boxLine("", 0, w))

	start, end := m.list.window(len(m.filtered))
	for i := start; i < end; i++ {
		sb.WriteString(m.renderProfileRow(i))
	}
	for i := end - start; i < m.list.height; i++ {
		sb.WriteString(boxLine("", 0, w))
	}

	sb.WriteString(boxRule(BottomLeft, BottomRight, w))
	sb.WriteString(statusBar(fmt.Sprintf("  %d/%d profiles", len(m.filtered), len(m.profiles)),
		"[Enter:select] [Esc:cancel]", w+2))

	return sb.String()
}

func (m ProfileModel) renderProfileRow(idx int) string {
	profile := m.filtered[idx]

	var line strings.Builder
	switch {
	case profile.Name == m.activeProfile:
		line.WriteString(" ● ")
	case idx == m.list.cursor:
		line.WriteString(" > ")
	default:
		line.WriteString("   ")
	}

	nameText := padRight(profile.Name, profileNameWidth)
	if profile.Name == m.activeProfile {
		line.WriteString(RunningStyle.Render(nameText))
	} else {
		line.WriteString(NameStyle.Render(nameText))
	}
	line.WriteString("  ")
	line.WriteString(MutedStyle.Render(padRight(orDash(profile.Region), profileRegionWidth)))

	return boxLine(line.String(), 3+profileNameWidth+2+profileRegionWidth, m.contentWidth)
}

// SelectProfile displays an interactive selector for AWS profiles
func SelectProfile(profiles []pkgtypes.AWSProfile, activeProfile string) (*pkgtypes.AWSProfile, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles available")
	}

	finalModel, err := tea.NewProgram(NewProfileModel(profiles, activeProfile)).Run()
	if err != nil {
		return nil, fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(ProfileModel)
	if result.cancelled {
		return nil, ErrCancelled
	}

	return result.selected, nil
}

// PrintProfileTable writes profiles as a table, marking the active one
func PrintProfileTable(out io.Writer, profiles []pkgtypes.AWSProfile, activeProfile string) {
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		marker := ""
		if p.Name == activeProfile {
			marker = "●"
		}
		rows = append(rows, []string{marker, p.Name, orDash(p.Region), p.Source})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		Headers("", "Name", "Region", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return cellStyle.Inherit(HeaderStyle)
			case row < len(rows) && rows[row][1] == activeProfile && col <= 1:
				return cellStyle.Inherit(RunningStyle)
			case col == 1:
				return cellStyle.Inherit(NameStyle)
			default:
				return cellStyle.Inherit(MutedStyle)
			}
		})

	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "  %d profiles\n", len(profiles))
}

// statusBar renders a count on the left and key hints on the right
func statusBar(count, hints string, width int) string {
	padding := width - runewidth.StringWidth(count) - runewidth.StringWidth(hints)
	if padding < 1 {
		padding = 1
	}
	return count + strings.Repeat(" ", padding) + HintStyle.Render(hints) + "\n"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
