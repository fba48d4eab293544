package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/sharepreview/internal/player"
)

type frameMsg time.Time
type tickMsg time.Time
type playbackEndedMsg struct{ done <-chan struct{} }

// serverLUFSMsg carries the offline loudness measurement.
type serverLUFSMsg struct {
	value float64
	err   error
}

func frameCmd(fps int) tea.Cmd {
	return tea.Tick(time.Second/time.Duration(max(fps, 1)), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func checkDone(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return playbackEndedMsg{done: done}
	}
}

func measureCmd(ctx context.Context, path string) tea.Cmd {
	return func() tea.Msg {
		v, err := player.MeasureFile(ctx, path)
		return serverLUFSMsg{value: v, err: err}
	}
}
