package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	TitleStyle         lipgloss.Style
	BorderStyle        lipgloss.Style
	PreviewBorderStyle lipgloss.Style
	NormalItemStyle    lipgloss.Style
	SelectedItemStyle  lipgloss.Style
	DirectoryStyle     lipgloss.Style
	FileStyle          lipgloss.Style
	OverlayStyle       lipgloss.Style
	PreviewStyle       lipgloss.Style
	StatusBarStyle     lipgloss.Style
	CommandStyle       lipgloss.Style
	ErrorStyle         lipgloss.Style
	HelpStyle          lipgloss.Style
}

func DefaultTheme() *Theme {
	return &Theme{
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")),
		PreviewBorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),
		NormalItemStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		SelectedItemStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("57")),
		DirectoryStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		FileStyle:         lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		OverlayStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		PreviewStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		StatusBarStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236")),
		CommandStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
		ErrorStyle:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		HelpStyle:         lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
