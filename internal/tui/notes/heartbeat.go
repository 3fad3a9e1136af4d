package notes

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Paintersrp/snyft/internal/state"
)

const heartbeatInterval = 2 * time.Second

// heartbeatMsg carries a fresh sample of the background work.
type heartbeatMsg struct {
	status state.Status
}

func sampleStatus(s *state.State) tea.Cmd {
	return func() tea.Msg {
		return heartbeatMsg{status: s.Status()}
	}
}

func nextHeartbeat(s *state.State) tea.Cmd {
	return tea.Tick(heartbeatInterval, func(time.Time) tea.Msg {
		return heartbeatMsg{status: s.Status()}
	})
}
