package resource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fieldbind/internal/resource"
)

type counter struct {
	calls int
	alive bool
}

func (c *counter) Renotify() bool {
	c.calls++
	return c.alive
}

func TestLoadRenotifiesOncePerKey(t *testing.T) {
	t.Parallel()

	tables := resource.NewTables()
	sub := &counter{alive: true}
	tables.Register("strings", "Greeting", sub)

	_, ok := tables.Lookup("strings", "Greeting")
	assert.False(t, ok)

	tables.Load("strings", map[string]any{"Greeting": "hi", "Other": "x"})
	assert.Equal(t, 1, sub.calls)

	v, ok := tables.Lookup("strings", "Greeting")
	assert.True(t, ok)
	assert.Equal(t, "hi", v)

	tables.Set("strings", "Greeting", "hello")
	assert.Equal(t, 2, sub.calls)

	tables.Delete("strings", "Greeting")
	assert.Equal(t, 3, sub.calls)

	tables.Delete("strings", "Greeting")
	assert.Equal(t, 3, sub.calls)
}

func TestUnloadAndDeadSubscribers(t *testing.T) {
	t.Parallel()

	tables := resource.NewTables()
	dead := &counter{}
	live := &counter{alive: true}

	tables.Register("theme", "Accent", dead)
	tables.Register("theme", "Accent", live)
	tables.Load("theme", map[string]any{"Accent": "#ff0000"})

	assert.Equal(t, 1, dead.calls)
	assert.Equal(t, 1, tables.Subscribers("theme", "Accent"))

	tables.Unload("theme")
	assert.Equal(t, 1, dead.calls)
	assert.Equal(t, 2, live.calls)
	assert.Empty(t, tables.Names())
}

func TestSubscriberFunc(t *testing.T) {
	t.Parallel()

	tables := resource.NewTables()
	calls := 0
	tables.Register("t", "k", resource.SubscriberFunc(func() bool {
		calls++
		return false
	}))

	tables.Set("t", "k", 1)
	tables.Set("t", "k", 2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, map[string]any{"k": 2}, tables.Entries("t"))
}
