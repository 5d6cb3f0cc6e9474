package resource

import (
	"maps"
	"slices"
	"sync"
)

// Subscriber is notified when the entry it registered for changes. A false
// return unsubscribes it.
type Subscriber interface {
	Renotify() bool
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func() bool

func (f SubscriberFunc) Renotify() bool { return f() }

type entryKey struct {
	table, key string
}

type subscription struct {
	Subscriber
}

// Tables is a set of named tables. Lookups and writes are safe from any
// goroutine; subscribers are always called outside the lock, on the
// goroutine that made the change.
type Tables struct {
	mu     sync.Mutex
	tables map[string]map[string]any
	subs   map[entryKey][]*subscription
}

func NewTables() *Tables {
	return &Tables{
		tables: make(map[string]map[string]any),
		subs:   make(map[entryKey][]*subscription),
	}
}

// Register subscribes s to (table, key). The table need not exist yet.
func (t *Tables) Register(table, key string, s Subscriber) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := entryKey{table, key}
	t.subs[k] = append(t.subs[k], &subscription{s})
}

// Lookup returns the current value of (table, key).
func (t *Tables) Lookup(table, key string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.tables[table][key]

	return v, ok
}

// Load replaces the whole content of table. Every key present before or
// after is renotified once.
func (t *Tables) Load(table string, entries map[string]any) {
	t.mu.Lock()
	old := t.tables[table]
	t.tables[table] = maps.Clone(entries)
	if t.tables[table] == nil {
		t.tables[table] = map[string]any{}
	}

	touched := make(map[string]struct{}, len(old)+len(entries))
	for k := range old {
		touched[k] = struct{}{}
	}

	for k := range entries {
		touched[k] = struct{}{}
	}
	t.mu.Unlock()

	for _, k := range slices.Sorted(maps.Keys(touched)) {
		t.renotify(table, k)
	}
}

// Set writes one entry, creating the table if needed.
func (t *Tables) Set(table, key string, v any) {
	t.mu.Lock()
	if t.tables[table] == nil {
		t.tables[table] = map[string]any{}
	}

	t.tables[table][key] = v
	t.mu.Unlock()

	t.renotify(table, key)
}

// Delete removes one entry.
func (t *Tables) Delete(table, key string) {
	t.mu.Lock()
	_, existed := t.tables[table][key]
	delete(t.tables[table], key)
	t.mu.Unlock()

	if existed {
		t.renotify(table, key)
	}
}

// Unload drops a whole table.
func (t *Tables) Unload(table string) {
	t.mu.Lock()
	old := t.tables[table]
	delete(t.tables, table)
	t.mu.Unlock()

	for _, k := range slices.Sorted(maps.Keys(old)) {
		t.renotify(table, k)
	}
}

// Names returns the loaded table names, sorted.
func (t *Tables) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.Sorted(maps.Keys(t.tables))
}

// Entries returns a copy of one table.
func (t *Tables) Entries(table string) map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()

	return maps.Clone(t.tables[table])
}

// Subscribers returns the number of live subscriptions on (table, key).
func (t *Tables) Subscribers(table, key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.subs[entryKey{table, key}])
}

func (t *Tables) renotify(table, key string) {
	k := entryKey{table, key}

	t.mu.Lock()
	subs := slices.Clone(t.subs[k])
	t.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	var dead []*subscription

	for _, s := range subs {
		if !s.Renotify() {
			dead = append(dead, s)
		}
	}

	if len(dead) == 0 {
		return
	}

	t.mu.Lock()
	t.subs[k] = slices.DeleteFunc(t.subs[k], func(s *subscription) bool {
		return slices.Contains(dead, s)
	})
	t.mu.Unlock()
}
