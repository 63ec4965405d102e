package engine

import (
	"sync"
	"time"

	"shop-sim-viewer/src/models"
)

// CommunicationLog is the append-only timeline of a session. Entries are never edited or removed.
type CommunicationLog struct {
	mu      sync.RWMutex
	entries []models.MMessage
	now     func() time.Time
}

// -----------------------------------------------------------------------------

func NewCommunicationLog(now func() time.Time) *CommunicationLog {
	if now == nil {
		now = time.Now
	}
	return &CommunicationLog{now: now}
}

// -----------------------------------------------------------------------------

// Append records one message stamped with the current time and returns it.
func (l *CommunicationLog) Append(from, to string, category models.MessageCategory, content string) models.MMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := models.MMessage{
		Seq:       len(l.entries),
		Timestamp: l.now(),
		From:      from,
		To:        to,
		Category:  category,
		Content:   content,
	}
	l.entries = append(l.entries, msg)
	return msg
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of every entry in insertion order.
func (l *CommunicationLog) Snapshot() []models.MMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.MMessage, len(l.entries))
	copy(out, l.entries)
	return out
}

// -----------------------------------------------------------------------------

// Since returns the entries whose sequence number is greater than seq.
func (l *CommunicationLog) Since(seq int) []models.MMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := seq + 1
	if start < 0 {
		start = 0
	}
	if start >= len(l.entries) {
		return []models.MMessage{}
	}
	out := make([]models.MMessage, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

// -----------------------------------------------------------------------------

func (l *CommunicationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// -----------------------------------------------------------------------------

// Count returns how many entries have the given category.
func (l *CommunicationLog) Count(category models.MessageCategory) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, e := range l.entries {
		if e.Category == category {
			n++
		}
	}
	return n
}
