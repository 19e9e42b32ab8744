package report

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#2F71F2", Dark: "#4A90FF"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#FFA500", Dark: "#FFA500"}
	colorError   = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#FF4672"}
)
