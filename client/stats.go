package client

import (
	"time"

	"wsrpc/message"
)

// GetStats implements spec.md §4.5's getStats(): an immutable snapshot
// with pendingRequests sampled from the live table at call time.
func (s *Session) GetStats() message.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var avg time.Duration
	if n := len(s.responseTimes); n > 0 {
		var sum time.Duration
		for _, d := range s.responseTimes {
			sum += d
		}
		avg = sum / time.Duration(n)
	}

	return message.Stats{
		RequestsSent:        s.requestsSent,
		ResponsesReceived:   s.responsesReceived,
		Timeouts:            s.timeouts,
		Errors:              s.errors,
		ReconnectCount:      s.reconnectCount,
		AverageResponseTime: avg,
		PendingRequests:     len(s.pendings),
	}
}
