package domain

import "sync"

// StatisticsSnapshot holds the display statistics of a remote session. A nil field
// means no value has been reported yet.
type StatisticsSnapshot struct {
	DesktopFPS *float64 `json:"desktopFps,omitempty"`
	ServerFPS  *float64 `json:"serverFps,omitempty"`
	ClientFPS  *float64 `json:"clientFps,omitempty"`
	DropRate   *float64 `json:"dropRate,omitempty"`
}

func (s StatisticsSnapshot) clone() StatisticsSnapshot {
	return StatisticsSnapshot{
		DesktopFPS: cloneFloat(s.DesktopFPS),
		ServerFPS:  cloneFloat(s.ServerFPS),
		ClientFPS:  cloneFloat(s.ClientFPS),
		DropRate:   cloneFloat(s.DropRate),
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// LiveStatistics is the session-owned statistics object. Writers replace it wholesale
// and readers always get a private copy.
type LiveStatistics struct {
	mu       sync.RWMutex
	snapshot StatisticsSnapshot
}

func (l *LiveStatistics) Update(snapshot StatisticsSnapshot) {
	snapshot = snapshot.clone()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshot = snapshot
}

// Merge overwrites only the fields that are set in partial.
func (l *LiveStatistics) Merge(partial StatisticsSnapshot) {
	partial = partial.clone()

	l.mu.Lock()
	defer l.mu.Unlock()
	if partial.DesktopFPS != nil {
		l.snapshot.DesktopFPS = partial.DesktopFPS
	}
	if partial.ServerFPS != nil {
		l.snapshot.ServerFPS = partial.ServerFPS
	}
	if partial.ClientFPS != nil {
		l.snapshot.ClientFPS = partial.ClientFPS
	}
	if partial.DropRate != nil {
		l.snapshot.DropRate = partial.DropRate
	}
}

func (l *LiveStatistics) Statistics() StatisticsSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot.clone()
}
