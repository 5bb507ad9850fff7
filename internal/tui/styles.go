package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Width(16)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	buttonStyle  = lipgloss.NewStyle().Padding(0, 2).Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230"))
	busyStyle    = buttonStyle.Background(lipgloss.Color("8"))
	totalStyle   = lipgloss.NewStyle().Bold(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)

	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	toastSuccessStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("42")).Padding(0, 1)
	toastErrorStyle   = toastSuccessStyle.BorderForeground(lipgloss.Color("9"))
)
