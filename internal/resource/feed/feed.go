// Package feed receives resource table updates from a socket.io server and
// queues them until the binding thread applies them.
//
// The server emits "resource" events whose payload is an object:
//
//	{"op": "set", "table": "strings", "key": "Greeting", "value": "Hi"}
//	{"op": "delete", "table": "strings", "key": "Greeting"}
//	{"op": "load", "table": "strings", "entries": {"Greeting": "Hi"}}
//	{"op": "unload", "table": "strings"}
//
// An omitted op means "set".
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"fieldbind/internal/ctxlog"
	"fieldbind/internal/resource"
)

// EventName is the socket.io event carrying updates.
const EventName = "resource"

// ConnectTimeout bounds Dial when ctx has no deadline.
const ConnectTimeout = 15 * time.Second

// Op is the kind of change an Update applies.
type Op string

const (
	OpSet    Op = "set"
	OpDelete Op = "delete"
	OpLoad   Op = "load"
	OpUnload Op = "unload"
)

// Update is one queued change.
type Update struct {
	Op      Op
	Table   string
	Key     string
	Value   any
	Entries map[string]any
}

// Feed queues updates from any goroutine; Apply drains them.
type Feed struct {
	log *slog.Logger
	io  *socket.Socket

	mu    sync.Mutex
	queue []Update
}

// New returns a feed that is not connected to anything. Updates can still
// be pushed by hand.
func New(logger *slog.Logger) *Feed {
	return &Feed{log: logger}
}

// Dial connects to a socket.io server and starts queueing its resource
// events.
func Dial(ctx context.Context, rawURL, namespace string) (*Feed, error) {
	logger := ctxlog.FromContext(ctx).With("feed", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	f := &Feed{log: logger, io: io}

	connected := make(chan error, 1)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to resource feed", "sid", io.Id())
		signal(connected, nil)
	})

	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := first(errs).(error)
		if err == nil {
			err = fmt.Errorf("connect_error")
		}

		signal(connected, err)
	})

	io.On(types.EventName(EventName), func(data ...any) {
		u, err := Decode(first(data))
		if err != nil {
			logger.Warn("Dropping malformed resource update", "error", err)
			return
		}

		f.Push(u)
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}

		return f, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for resource feed: %w", ctx.Err())
	case <-time.After(ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for resource feed", ConnectTimeout)
	}
}

// signal reports the handshake outcome without blocking: once Dial has
// returned nobody reads ch any more.
func signal(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// Close disconnects from the server, if connected.
func (f *Feed) Close() {
	if f.io != nil {
		f.io.Disconnect()
	}
}

// Push queues u.
func (f *Feed) Push(u Update) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queue = append(f.queue, u)
}

// Pending returns the number of queued updates.
func (f *Feed) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.queue)
}

// Apply drains the queue into tables, in arrival order, and returns the
// number of updates applied. Call it from the goroutine owning the
// binding engine: subscribers run synchronously.
func (f *Feed) Apply(tables *resource.Tables) int {
	f.mu.Lock()
	queue := f.queue
	f.queue = nil
	f.mu.Unlock()

	for _, u := range queue {
		switch u.Op {
		case OpDelete:
			tables.Delete(u.Table, u.Key)
		case OpLoad:
			tables.Load(u.Table, u.Entries)
		case OpUnload:
			tables.Unload(u.Table)
		default:
			tables.Set(u.Table, u.Key, u.Value)
		}
	}

	if len(queue) > 0 && f.log != nil {
		f.log.Debug("Applied resource updates", "count", len(queue))
	}

	return len(queue)
}

// Decode turns an event payload into an Update.
func Decode(payload any) (Update, error) {
	m, ok := payload.(map[string]any)
	if !ok {
		return Update{}, fmt.Errorf("payload is %T, want object", payload)
	}

	u := Update{Op: OpSet}

	if op, ok := m["op"].(string); ok && op != "" {
		u.Op = Op(op)
	}

	table, _ := m["table"].(string)
	if table == "" {
		return Update{}, fmt.Errorf("update without table")
	}

	u.Table = table
	u.Key, _ = m["key"].(string)
	u.Value = m["value"]

	switch u.Op {
	case OpSet, OpDelete:
		if u.Key == "" {
			return Update{}, fmt.Errorf("%s on %s without key", u.Op, table)
		}
	case OpLoad:
		entries, ok := m["entries"].(map[string]any)
		if !ok {
			return Update{}, fmt.Errorf("load of %s without entries", table)
		}

		u.Entries = entries
	case OpUnload:
	default:
		return Update{}, fmt.Errorf("unknown op %q", u.Op)
	}

	return u, nil
}

func first(data []any) any {
	if len(data) == 0 {
		return nil
	}

	return data[0]
}
