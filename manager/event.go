package manager

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/syssam/dirtydb/dialect"
)

// SchemeWroteEvent is published after every successful write.
type SchemeWroteEvent struct {
	Kind      dialect.Kind
	Table     string
	Timestamp time.Time
}

// eventBuffer is the number of events queued per subscriber before new
// events are dropped.
const eventBuffer = 256

type subscriber struct {
	id int
	ch chan SchemeWroteEvent
}

// dispatcher delivers events to subscribers asynchronously. Each
// subscriber has its own queue and goroutine, so a slow subscriber only
// delays itself.
type dispatcher struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   []*subscriber
	nextID int
	closed bool
	wg     sync.WaitGroup
}

func newDispatcher(logger *slog.Logger) *dispatcher {
	return &dispatcher{logger: logger}
}

func (d *dispatcher) subscribe(fn func(SchemeWroteEvent)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return func() {}
	}
	s := &subscriber{id: d.nextID, ch: make(chan SchemeWroteEvent, eventBuffer)}
	d.nextID++
	d.subs = append(d.subs, s)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for ev := range s.ch {
			fn(ev)
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { d.remove(s.id) })
	}
}

func (d *dispatcher) remove(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.subs {
		if s.id == id {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

func (d *dispatcher) publish(ctx context.Context, ev SchemeWroteEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.subs {
		select {
		case s.ch <- ev:
		default:
			d.logger.ErrorContext(ctx, "write event dropped", "kind", ev.Kind, "table", ev.Table, "subscriber", s.id)
		}
	}
}

// close stops accepting subscribers and waits for queued events to be
// delivered.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	for _, s := range d.subs {
		close(s.ch)
	}
	d.subs = nil
	d.mu.Unlock()
	d.wg.Wait()
}

// Subscribe registers fn to receive every SchemeWroteEvent of every
// backend. Events are delivered in order on a goroutine owned by the
// subscription. The returned function cancels it.
func (m *Manager) Subscribe(fn func(SchemeWroteEvent)) (unsubscribe func()) {
	return m.events.subscribe(fn)
}

// wrote records a successful write to table. Inside a transaction the
// record is deferred until commit.
func (m *Manager) wrote(ctx context.Context, table string) {
	if m.tx != nil {
		m.tx.addCommitHook(func() { m.root().wrote(ctx, table) })
		return
	}
	ev := SchemeWroteEvent{Kind: m.kind, Table: table, Timestamp: m.now()}
	m.registry.Touch(ev.Kind, ev.Timestamp)
	m.invalidate(ctx, table)
	m.events.publish(ctx, ev)
}
