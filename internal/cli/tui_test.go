package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(m ThemePickerModel, key tea.KeyMsg) (ThemePickerModel, tea.Cmd) {
	next, cmd := m.Update(key)
	return next.(ThemePickerModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestThemePickerStartsOnCurrent(t *testing.T) {
	m := NewThemePickerModel("Themes", []string{"a", "b", "c"}, "b", nil)
	assert.Equal(t, 1, m.Cursor)

	m = NewThemePickerModel("Themes", []string{"a", "b"}, "zzz", nil)
	assert.Equal(t, 0, m.Cursor)
}

func TestThemePickerNavigation(t *testing.T) {
	m := NewThemePickerModel("Themes", []string{"a", "b", "c"}, "", nil)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(m, runes("j"))
	m, _ = press(m, runes("j"))
	assert.Equal(t, 2, m.Cursor, "cursor stops at the last theme")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.Cursor)

	m, _ = press(m, runes("g"))
	assert.Equal(t, 0, m.Cursor)
	m, _ = press(m, runes("G"))
	assert.Equal(t, 2, m.Cursor)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "c", m.Selected)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestThemePickerQuitWithoutSelection(t *testing.T) {
	m := NewThemePickerModel("Themes", []string{"a"}, "", nil)
	m, cmd := press(m, runes("q"))
	assert.Empty(t, m.Selected)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestThemePickerScrolls(t *testing.T) {
	themes := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7"}
	m := NewThemePickerModel("Themes", themes, "", nil)
	m.Height = 3

	for range 5 {
		m, _ = press(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 5, m.Cursor)
	assert.Equal(t, 3, m.Offset)

	view := m.View()
	assert.Contains(t, view, "t5")
	assert.NotContains(t, view, "t1")
	assert.Contains(t, view, "[6/8]")
}

func TestThemePickerViewPreview(t *testing.T) {
	m := NewThemePickerModel("Pick", []string{"light", "dark"}, "dark", func(theme string) string {
		return "preview of " + theme
	})
	view := m.View()
	assert.Contains(t, view, "Pick")
	assert.Contains(t, view, "preview of dark")
	assert.True(t, strings.Contains(view, "▸ dark"))
}

func TestThemePickerEmpty(t *testing.T) {
	m := NewThemePickerModel("Pick", nil, "", nil)
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "no themes available")
}
