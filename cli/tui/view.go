package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.mode == ModeHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m *Model) renderMain() string {
	sections := []string{
		m.renderTitle(),
		m.renderContent(),
		m.renderStatus(),
	}

	if m.mode == ModeCommand {
		sections = append(sections, m.theme.CommandStyle.Render(": "+m.textInput.View()))
	}

	if m.commandOut != "" {
		sections = append(sections, m.renderCommandOutput())
	}

	sections = append(sections, m.theme.HelpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTitle() string {
	return m.theme.TitleStyle.Render(fmt.Sprintf("x4vfs - /%s", m.currentPath))
}

func (m *Model) renderContent() string {
	height := m.getVisibleLines() + 2

	if !m.showPreview {
		return m.theme.BorderStyle.
			Width(m.width - 4).
			Height(height).
			Render(m.renderFileList())
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 4

	list := m.theme.BorderStyle.
		Width(leftWidth).
		Height(height).
		Render(m.renderFileList())

	preview := m.theme.PreviewBorderStyle.
		Width(rightWidth).
		Height(height).
		Render(m.renderPreview())

	return lipgloss.JoinHorizontal(lipgloss.Top, list, preview)
}

func (m *Model) renderFileList() string {
	if len(m.entries) == 0 {
		return m.theme.NormalItemStyle.Render("(empty directory)")
	}

	end := min(m.offset+m.getVisibleLines(), len(m.entries))

	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderFileEntry(m.entries[i], i == m.cursor))
	}

	return strings.Join(lines, "\n")
}

func (m *Model) renderFileEntry(entry *Entry, selected bool) string {
	var style lipgloss.Style
	switch {
	case selected:
		style = m.theme.SelectedItemStyle
	case entry.IsDir:
		style = m.theme.DirectoryStyle
	case entry.IsOverlay():
		style = m.theme.OverlayStyle
	default:
		style = m.theme.FileStyle
	}

	nameWidth := 40
	if m.showPreview {
		nameWidth = 30
	}

	name := entry.DisplayName()
	if len(name) > nameWidth {
		name = name[:nameWidth-3] + "..."
	}

	return style.Render(fmt.Sprintf("%-*s %10s", nameWidth, name, entry.DisplaySize()))
}

func (m *Model) renderPreview() string {
	entry := m.currentEntry()
	if entry == nil {
		return m.theme.PreviewStyle.Render("No file selected")
	}

	if entry.IsDir {
		return m.theme.PreviewStyle.Render(fmt.Sprintf("Directory: %s\nPath: /%s\n", entry.Name, entry.Path))
	}

	if m.previewError != nil {
		return m.theme.ErrorStyle.Render(fmt.Sprintf("Error: %v", m.previewError))
	}

	info := fmt.Sprintf("File: %s\nSize: %s\nLayer: %s\n\n", entry.Name, entry.DisplaySize(), entry.Layer)
	if m.previewContent == "" {
		return m.theme.PreviewStyle.Render(info + "(empty file)")
	}

	return m.theme.PreviewStyle.Render(info + m.previewContent)
}

func (m *Model) renderStatus() string {
	left := "0 items"
	if len(m.entries) > 0 {
		left = fmt.Sprintf("%d/%d items", m.cursor+1, len(m.entries))
	}

	right := m.statusMsg
	if m.errorMsg != "" {
		right = m.theme.ErrorStyle.Render(m.errorMsg)
	}

	spacing := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-4, 0)
	return m.theme.StatusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", spacing) + right)
}

func (m *Model) renderCommandOutput() string {
	lines := strings.Split(strings.TrimRight(m.commandOut, "\n"), "\n")
	if len(lines) > 8 {
		lines = append(lines[:8], "...")
	}

	return m.theme.PreviewBorderStyle.
		Width(m.width - 4).
		Render(strings.Join(lines, "\n"))
}

func (m *Model) renderHelp() string {
	sections := []string{
		m.theme.TitleStyle.Render("x4vfs - Help"),
		"",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		"Command mode runs the same commands as the command line,",
		"for example ':xml libraries/wares.xml' or ':layers'.",
		"",
		m.theme.HelpStyle.Render("Press ? or q to return"),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
