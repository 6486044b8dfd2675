package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorWhite     = lipgloss.Color("#FFFFFF")
	colorLightGray = lipgloss.Color("#CCCCCC")
	colorGray      = lipgloss.Color("#888888")
	colorDarkGray  = lipgloss.Color("#444444")
	colorCyan      = lipgloss.Color("#3FB6C8")
	colorRed       = lipgloss.Color("#E05561")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	userStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorCyan).
				Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	inputBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorGray).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorLightGray)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDarkGray).
			Italic(true)
)

const logo = `
   ___          _         _                    _
  / __|___   __| |___    /_\  __ _ ___ _ _  __| |_
 | (__/ _ \ / _' / -_)  / _ \/ _' / -_) ' \|  _|
  \___\___/ \__,_\___| /_/ \_\__, \___|_||_|\__|
                             |___/
`
