package client

import (
	"strconv"
	"sync/atomic"
)

// messageIDCounter generates the monotonically increasing per-connection
// Message-ID: a string representation of a counter, never process-global
// state.
type messageIDCounter struct {
	id atomic.Int64
}

func newMessageIDCounter() *messageIDCounter {
	return &messageIDCounter{}
}

// Next increments and returns the next Message-ID, formatted as its
// decimal string representation.
func (m *messageIDCounter) Next() string {
	return strconv.FormatInt(m.id.Add(1), 10)
}

// Current returns the current counter value without incrementing.
func (m *messageIDCounter) Current() int64 {
	return m.id.Load()
}
