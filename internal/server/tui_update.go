// ABOUTME: TUI update helpers for server
// ABOUTME: Functions to send server state updates to TUI
package server

import (
	"sort"
	"time"
)

// Status snapshots the server for display
func (s *Server) Status() ServerStatus {
	s.sessionsMu.RLock()
	sessions := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sess.mu.RLock()
		sessions = append(sessions, SessionInfo{
			Name:    sess.Name,
			ID:      sess.ID,
			Stage:   sess.stage,
			Elapsed: time.Since(sess.started),
		})
		sess.mu.RUnlock()
	}
	s.sessionsMu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Elapsed > sessions[j].Elapsed })

	return ServerStatus{
		Name:      s.config.Name,
		Port:      s.config.Port,
		Backend:   s.backendName(),
		Sessions:  sessions,
		Completed: s.completed.Load(),
		Failed:    s.failed.Load(),
	}
}

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}
	s.tui.Update(s.Status())
}
