package client

import (
	"sync"
	"time"
)

// MethodStats accumulates per-method operation counters for the lifetime
// of a Connection.
type MethodStats struct {
	Count          int64
	ExceptionCount int64

	ServerTimeSum time.Duration
	ServerTimeMin time.Duration
	ServerTimeMax time.Duration

	ClientTimeSum time.Duration
	ClientTimeMin time.Duration
	ClientTimeMax time.Duration

	RequestLenSum int64
	RequestLenMin int64
	RequestLenMax int64

	ReplyLenSum int64
	ReplyLenMin int64
	ReplyLenMax int64
}

// statsTracker is the connection-local, single-operation-at-a-time
// statistics table: mutated only by the operation in
// flight, so the mutex exists for safe Statistics() snapshots from another
// goroutine, not for concurrent operation safety.
type statsTracker struct {
	mu      sync.Mutex
	enabled bool
	byName  map[string]*MethodStats
}

func newStatsTracker(enabled bool) *statsTracker {
	return &statsTracker{enabled: enabled, byName: map[string]*MethodStats{}}
}

// record folds one completed operation's measurements into method's
// counters. serverTime is zero when the server did not report
// WBEMServerResponseTime.
func (s *statsTracker) record(method string, clientTime, serverTime time.Duration, requestLen, replyLen int, failed bool) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byName[method]
	if !ok {
		m = &MethodStats{
			ServerTimeMin: clientTime, // placeholder, overwritten below
			ClientTimeMin: clientTime,
			RequestLenMin: int64(requestLen),
			ReplyLenMin:   int64(replyLen),
		}
		s.byName[method] = m
	}

	m.Count++
	if failed {
		m.ExceptionCount++
	}

	m.ClientTimeSum += clientTime
	m.ClientTimeMin = minDuration(m.ClientTimeMin, clientTime, m.Count == 1)
	m.ClientTimeMax = maxDuration(m.ClientTimeMax, clientTime)

	m.ServerTimeSum += serverTime
	m.ServerTimeMin = minDuration(m.ServerTimeMin, serverTime, m.Count == 1)
	m.ServerTimeMax = maxDuration(m.ServerTimeMax, serverTime)

	rl := int64(requestLen)
	m.RequestLenSum += rl
	m.RequestLenMin = minInt64(m.RequestLenMin, rl, m.Count == 1)
	m.RequestLenMax = maxInt64(m.RequestLenMax, rl)

	repl := int64(replyLen)
	m.ReplyLenSum += repl
	m.ReplyLenMin = minInt64(m.ReplyLenMin, repl, m.Count == 1)
	m.ReplyLenMax = maxInt64(m.ReplyLenMax, repl)
}

func (s *statsTracker) snapshot() map[string]MethodStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]MethodStats, len(s.byName))
	for k, v := range s.byName {
		out[k] = *v
	}
	return out
}

func minDuration(cur, v time.Duration, first bool) time.Duration {
	if first || v < cur {
		return v
	}
	return cur
}

func maxDuration(cur, v time.Duration) time.Duration {
	if v > cur {
		return v
	}
	return cur
}

func minInt64(cur, v int64, first bool) int64 {
	if first || v < cur {
		return v
	}
	return cur
}

func maxInt64(cur, v int64) int64 {
	if v > cur {
		return v
	}
	return cur
}
