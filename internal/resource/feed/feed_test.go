package feed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldbind/internal/ctxlog"
	"fieldbind/internal/resource"
	"fieldbind/internal/resource/feed"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	u, err := feed.Decode(map[string]any{"table": "strings", "key": "Greeting", "value": "Hi"})
	require.NoError(t, err)
	assert.Equal(t, feed.Update{Op: feed.OpSet, Table: "strings", Key: "Greeting", Value: "Hi"}, u)

	u, err = feed.Decode(map[string]any{"op": "load", "table": "theme", "entries": map[string]any{"Accent": "red"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Accent": "red"}, u.Entries)

	for name, bad := range map[string]any{
		"not an object": "x",
		"no table":      map[string]any{"key": "k"},
		"set no key":    map[string]any{"table": "t"},
		"load no map":   map[string]any{"op": "load", "table": "t"},
		"unknown op":    map[string]any{"op": "merge", "table": "t"},
	} {
		_, err := feed.Decode(bad)
		assert.Error(t, err, name)
	}
}

func TestApplyDrainsInOrder(t *testing.T) {
	t.Parallel()

	f := feed.New(ctxlog.Discard())
	tables := resource.NewTables()

	f.Push(feed.Update{Op: feed.OpLoad, Table: "strings", Entries: map[string]any{"A": "1", "B": "2"}})
	f.Push(feed.Update{Op: feed.OpSet, Table: "strings", Key: "A", Value: "3"})
	f.Push(feed.Update{Op: feed.OpDelete, Table: "strings", Key: "B"})
	assert.Equal(t, 3, f.Pending())

	assert.Equal(t, 3, f.Apply(tables))
	assert.Equal(t, 0, f.Pending())
	assert.Equal(t, map[string]any{"A": "3"}, tables.Entries("strings"))

	f.Push(feed.Update{Op: feed.OpUnload, Table: "strings"})
	assert.Equal(t, 1, f.Apply(tables))
	assert.Empty(t, tables.Names())
}
