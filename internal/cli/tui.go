package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	previewStyle      = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1).
				MarginLeft(2)
)

// =============================================================================
// ThemePickerModel - Interactive theme selection with live preview
// =============================================================================

// ThemePickerModel is the bubbletea model for picking a highlight theme.
// Preview renders a sample in the theme under the cursor.
type ThemePickerModel struct {
	Title    string
	Themes   []string
	Cursor   int
	Offset   int
	Height   int
	Selected string
	Preview  func(theme string) string
}

// NewThemePickerModel creates a picker with the cursor on current, when present.
func NewThemePickerModel(title string, themes []string, current string, preview func(string) string) ThemePickerModel {
	m := ThemePickerModel{
		Title:   title,
		Themes:  themes,
		Height:  15,
		Preview: preview,
	}
	for i, t := range themes {
		if t == current {
			m.Cursor = i
			break
		}
	}
	m.scroll()
	return m
}

func (m ThemePickerModel) Init() tea.Cmd {
	return nil
}

func (m ThemePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Themes)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = max(len(m.Themes)-1, 0)
		case "enter":
			if len(m.Themes) == 0 {
				return m, nil
			}
			m.Selected = m.Themes[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	m.scroll()
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *ThemePickerModel) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m ThemePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Themes) == 0 {
		b.WriteString(listDimStyle.Render("  no themes available"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Themes))
	var list strings.Builder
	for i := m.Offset; i < end; i++ {
		if i == m.Cursor {
			list.WriteString(listSelectedStyle.Render("▸ " + m.Themes[i]))
		} else {
			list.WriteString(listNormalStyle.Render("  " + m.Themes[i]))
		}
		list.WriteString("\n")
	}

	left := list.String()
	if m.Preview != nil {
		preview := previewStyle.Render(strings.TrimRight(m.Preview(m.Themes[m.Cursor]), "\n"))
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, preview))
	} else {
		b.WriteString(left)
	}

	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Themes))))
	return b.String()
}
