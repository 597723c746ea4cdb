// Package commitqueue coalesces pending query-string writes and commits them
// as one merged location after a quiet window.
//
// A Queue collects key writes from any number of bindings. A Committer owns
// the Queue's debounce timer: every Enqueue cancels and reschedules it, and
// when the window passes with no further writes the Committer reads the
// current location, overlays the queued writes and hands the result to the
// navigation callback exactly once.
package commitqueue

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Value is a pending write: either a string to set or null to remove the key.
type Value struct {
	raw  string
	null bool
}

// Set returns a Value that sets a key to s.
func Set(s string) Value {
	return Value{raw: s}
}

// Null returns a Value that removes a key from the location.
func Null() Value {
	return Value{null: true}
}

// IsNull reports whether v removes its key.
func (v Value) IsNull() bool {
	return v.null
}

// String returns the value to set, or "" for null.
func (v Value) String() string {
	return v.raw
}

// Entry is one queued write.
type Entry struct {
	Key   string
	Value Value
}

// Queue is an ordered key -> pending value buffer. A key keeps the position
// of its first write in the window; later writes replace its value.
type Queue struct {
	mu sync.Mutex
	m  *orderedmap.OrderedMap[string, Value]
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{m: orderedmap.New[string, Value]()}
}

// Put records a write for key.
func (q *Queue) Put(key string, v Value) {
	q.mu.Lock()
	q.m.Set(key, v)
	q.mu.Unlock()
}

// Pending returns the number of keys waiting to be committed.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.m.Len()
}

// Snapshot returns the queued writes in order without clearing them.
func (q *Queue) Snapshot() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entriesLocked()
}

// Drain returns the queued writes and clears the queue.
func (q *Queue) Drain() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	entries := q.entriesLocked()
	q.m = orderedmap.New[string, Value]()
	return entries
}

// Settle removes the given entries once a flush has taken them. An entry
// whose key was rewritten since the snapshot stays queued for the next window.
func (q *Queue) Settle(entries []Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range entries {
		if current, ok := q.m.Get(e.Key); ok && current == e.Value {
			q.m.Delete(e.Key)
		}
	}
}

func (q *Queue) entriesLocked() []Entry {
	entries := make([]Entry, 0, q.m.Len())
	for pair := q.m.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, Entry{Key: pair.Key, Value: pair.Value})
	}
	return entries
}
