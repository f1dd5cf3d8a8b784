package schedule

import (
	"sort"
	"sync"
	"time"
)

// Manual is a virtual clock implementing Scheduler. Callbacks run only
// inside Advance, on the caller's goroutine.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	entries []*manualEntry
}

type manualEntry struct {
	due  time.Duration
	seq  uint64
	task *task
}

// NewManual returns a clock at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	e := &manualEntry{due: m.now + d, seq: m.seq, task: newTask(f)}
	m.entries = append(m.entries, e)
	return e.task
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of callbacks that are scheduled and not stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.entries {
		if e.task.pending() {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every callback that becomes
// due in order of due time. Callbacks scheduled while advancing run too if
// they fall inside the window. It returns the number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	fired := 0
	for {
		e := m.popDue(target)
		if e == nil {
			break
		}
		if e.task.run() {
			fired++
		}
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
	return fired
}

// Step advances to the next pending callback and runs it. It reports
// false when nothing is scheduled.
func (m *Manual) Step() bool {
	m.mu.Lock()
	m.compact()
	if len(m.entries) == 0 {
		m.mu.Unlock()
		return false
	}
	m.sortEntries()
	next := m.entries[0].due
	m.mu.Unlock()

	m.Advance(next - m.Now())
	return true
}

// popDue removes and returns the earliest entry due at or before target.
func (m *Manual) popDue(target time.Duration) *manualEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.compact()
	if len(m.entries) == 0 {
		return nil
	}
	m.sortEntries()
	e := m.entries[0]
	if e.due > target {
		return nil
	}
	m.entries = m.entries[1:]
	if e.due > m.now {
		m.now = e.due
	}
	return e
}

func (m *Manual) sortEntries() {
	sort.SliceStable(m.entries, func(i, j int) bool {
		if m.entries[i].due == m.entries[j].due {
			return m.entries[i].seq < m.entries[j].seq
		}
		return m.entries[i].due < m.entries[j].due
	})
}

// compact drops stopped entries. Caller holds mu.
func (m *Manual) compact() {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.task.pending() {
			kept = append(kept, e)
		}
	}
	m.entries = kept
}
