package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	wprogress "github.com/linuxmatters/terrawave/internal/progress"
)

// Forward delivers queued progress messages to send, typically
// tea.Program.Send, until the queue is closed and drained
func Forward(q *wprogress.Queue, send func(tea.Msg)) {
	for {
		m, ok := q.Next()
		if !ok {
			return
		}
		send(m)
	}
}
