package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/dirtydb"
	"github.com/syssam/dirtydb/config"
	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
	"github.com/syssam/dirtydb/privacy"
)

// Pool holds the opened drivers of one backend. Read is optional, and
// without it reads use Write. Write is nil on read-only backends.
type Pool struct {
	Kind           dialect.Kind
	Write          dialect.Driver
	Read           dialect.Driver
	Sticky         bool
	StickyDuration time.Duration
}

// backend is a Pool with its runtime state.
type backend struct {
	kind  dialect.Kind
	write dialect.Driver
	read  dialect.Driver
	stats *sql.QueryStats

	mu             sync.RWMutex
	sticky         bool
	stickyDuration time.Duration
}

func (b *backend) stickyWindow() (bool, time.Duration) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sticky, b.stickyDuration
}

func (b *backend) setSticky(sticky bool, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sticky, b.stickyDuration = sticky, d
}

// shared is the state every handle of a Manager points to.
type shared struct {
	backends map[dialect.Kind]*backend
	kinds    []dialect.Kind
	registry *Registry
	events   *dispatcher
	logger   *slog.Logger
	now      func() time.Time
	cache    dirtydb.Cache
	cacheTTL time.Duration
	policy   privacy.Policies

	closeOnce sync.Once
	closeErr  error
}

// Manager routes statements to the pools of the configured backends.
// Writes always use the write pool. Reads use the read pool unless the
// backend was written within its sticky window.
//
// A Manager is a cheap handle; On returns a copy bound to another backend
// that shares pools, the last-write registry and subscribers.
type Manager struct {
	*shared
	kind dialect.Kind
	tx   *txDriver
}

type options struct {
	kind     dialect.Kind
	logger   *slog.Logger
	now      func() time.Time
	cache    dirtydb.Cache
	cacheTTL time.Duration
	stats    []sql.StatsOption
	withStat bool
	debug    bool
	policy   privacy.Policies
}

// Option configures a Manager.
type Option func(*options)

// WithKind selects the backend of the returned handle. It defaults to the
// default client of the configuration, or the first pool given to New.
func WithKind(kind dialect.Kind) Option {
	return func(o *options) { o.kind = kind }
}

// WithLogger sets the logger. It defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock replaces time.Now for sticky routing and write events.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCache caches select results in c for ttl. Every write through the
// manager drops the cached results of the written table.
func WithCache(c dirtydb.Cache, ttl time.Duration) Option {
	return func(o *options) { o.cache, o.cacheTTL = c, ttl }
}

// WithStats wraps every pool in a sql.StatsDriver. The read and write
// pools of a backend share their counters.
func WithStats(opts ...sql.StatsOption) Option {
	return func(o *options) {
		o.withStat = true
		o.stats = append(o.stats, opts...)
	}
}

// WithDebug logs every statement at Debug level.
func WithDebug() Option {
	return func(o *options) { o.debug = true }
}

// WithPolicy evaluates rules on every select and write built with the
// query package before it is compiled. Raw statements and schema changes
// are not evaluated.
func WithPolicy(rules ...privacy.QueryMutationRule) Option {
	return func(o *options) { o.policy = append(o.policy, rules...) }
}

// New returns a Manager over already opened pools.
func New(pools []Pool, opts ...Option) (*Manager, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if len(pools) == 0 {
		return nil, dirtydb.ErrNoConnection
	}
	s := &shared{
		backends: make(map[dialect.Kind]*backend, len(pools)),
		registry: NewRegistry(),
		logger:   o.logger.With("component", "dirtydb.manager"),
		now:      o.now,
		cache:    o.cache,
		cacheTTL: o.cacheTTL,
		policy:   o.policy,
	}
	for _, p := range pools {
		if _, ok := s.backends[p.Kind]; ok {
			return nil, fmt.Errorf("manager: backend %s given twice", p.Kind)
		}
		if p.Write == nil && p.Read == nil {
			return nil, fmt.Errorf("manager: backend %s: %w", p.Kind, dirtydb.ErrNoConnection)
		}
		b := &backend{
			kind:           p.Kind,
			write:          p.Write,
			read:           p.Read,
			sticky:         p.Sticky,
			stickyDuration: p.StickyDuration,
		}
		if o.withStat {
			b.stats = &sql.QueryStats{}
			statOpts := append([]sql.StatsOption{sql.WithQueryStats(b.stats), sql.WithSlowQueryLog(s.logger)}, o.stats...)
			b.write = decorate(b.write, func(d dialect.Driver) dialect.Driver { return sql.NewStatsDriver(d, statOpts...) })
			b.read = decorate(b.read, func(d dialect.Driver) dialect.Driver { return sql.NewStatsDriver(d, statOpts...) })
		}
		if o.debug {
			b.write = decorate(b.write, func(d dialect.Driver) dialect.Driver { return sql.NewDebugDriver(d, s.logger) })
			b.read = decorate(b.read, func(d dialect.Driver) dialect.Driver { return sql.NewDebugDriver(d, s.logger) })
		}
		s.backends[p.Kind] = b
		s.kinds = append(s.kinds, p.Kind)
	}
	sort.Slice(s.kinds, func(i, j int) bool { return s.kinds[i] < s.kinds[j] })
	s.events = newDispatcher(s.logger)

	kind := o.kind
	if kind == "" {
		kind = pools[0].Kind
	}
	if _, ok := s.backends[kind]; !ok {
		return nil, fmt.Errorf("manager: backend %s: %w", kind, dirtydb.ErrNoConnection)
	}
	return &Manager{shared: s, kind: kind}, nil
}

func decorate(d dialect.Driver, fn func(dialect.Driver) dialect.Driver) dialect.Driver {
	if d == nil {
		return nil
	}
	return fn(d)
}

// Open opens the enabled pools of every client in set and returns a
// Manager bound to the default client. All pools are opened concurrently;
// on failure the ones already open are closed and the error is a
// *dirtydb.ConnectionError.
func Open(ctx context.Context, set *config.ConfigSet, opts ...Option) (*Manager, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(set.Clients))
	for name := range set.Clients {
		names = append(names, name)
	}
	sort.Strings(names)

	type slot struct {
		cfg config.BaseConfig
		drv *sql.Driver
	}
	var slots []*slot
	for _, name := range names {
		for _, cfg := range set.Clients[name].Pools() {
			slots = append(slots, &slot{cfg: cfg})
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, sl := range slots {
		if sl.cfg.ClientType == dialect.Read && sl.cfg.IsInMemory() {
			// A private in-memory database cannot be shared with a second
			// pool; the read side reuses the write pool.
			continue
		}
		g.Go(func() error {
			drv, err := sql.OpenConfig(gctx, sl.cfg)
			if err != nil {
				return &dirtydb.ConnectionError{Kind: sl.cfg.Kind.String(), Client: sl.cfg.ClientType.String(), Err: err}
			}
			sl.drv = drv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, sl := range slots {
			if sl.drv != nil {
				_ = sl.drv.Close()
			}
		}
		return nil, err
	}

	var pools []Pool
	for _, name := range names {
		c := set.Clients[name]
		p := Pool{Kind: c.Kind()}
		for _, sl := range slots {
			if sl.cfg.Kind != p.Kind || sl.drv == nil {
				continue
			}
			switch sl.cfg.ClientType {
			case dialect.Write:
				p.Write = sl.drv
				p.Sticky, p.StickyDuration = sl.cfg.Sticky, sl.cfg.StickyWindow()
			case dialect.Read:
				p.Read = sl.drv
			}
		}
		if p.Write == nil && p.Read == nil {
			continue
		}
		pools = append(pools, p)
	}
	def, _ := set.DefaultClientConfig()
	m, err := New(pools, append([]Option{WithKind(def.Kind())}, opts...)...)
	if err != nil {
		for _, sl := range slots {
			if sl.drv != nil {
				_ = sl.drv.Close()
			}
		}
		return nil, err
	}
	for _, sl := range slots {
		if sl.drv != nil {
			m.logger.Info("pool opened", "kind", sl.cfg.Kind, "client", sl.cfg.ClientType, "max", sl.cfg.Max)
		}
	}
	return m, nil
}

// MustOpen is like Open but panics if a pool cannot be opened.
func MustOpen(ctx context.Context, set *config.ConfigSet, opts ...Option) *Manager {
	m, err := Open(ctx, set, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// On returns a handle bound to the backend of kind.
func (m *Manager) On(kind dialect.Kind) (*Manager, error) {
	if _, ok := m.backends[kind]; !ok {
		return nil, fmt.Errorf("manager: backend %s: %w", kind, dirtydb.ErrNoConnection)
	}
	return &Manager{shared: m.shared, kind: kind}, nil
}

// Kind returns the backend of the handle.
func (m *Manager) Kind() dialect.Kind { return m.kind }

// Kinds returns every configured backend.
func (m *Manager) Kinds() []dialect.Kind { return m.kinds }

// IsWritable reports whether the backend has a write pool.
func (m *Manager) IsWritable() bool {
	return m.backend().write != nil
}

// Registry returns the last-write registry used for sticky reads.
func (m *Manager) Registry() *Registry { return m.registry }

// Stats returns the statement counters of the backend. It is zero unless
// the manager was created with WithStats.
func (m *Manager) Stats() sql.StatsSnapshot {
	if b := m.backend(); b.stats != nil {
		return b.stats.Stats()
	}
	return sql.StatsSnapshot{}
}

// Close closes every pool and stops event delivery. Closing a handle
// closes the pools of all handles.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.events.close()
		var errs []error
		for _, kind := range m.kinds {
			b := m.backends[kind]
			if b.write != nil {
				errs = append(errs, b.write.Close())
			}
			if b.read != nil && b.read != b.write {
				errs = append(errs, b.read.Close())
			}
		}
		m.closeErr = errors.Join(errs...)
	})
	return m.closeErr
}

func (m *Manager) backend() *backend { return m.backends[m.kind] }

// writer returns the driver writes go to.
func (m *Manager) writer() (dialect.ExecQuerier, error) {
	if m.tx != nil {
		return m.tx, nil
	}
	b := m.backend()
	if b.write == nil {
		return nil, dirtydb.ErrReadOnly
	}
	return b.write, nil
}

// reader returns the driver a read goes to and the client type it
// belongs to.
func (m *Manager) reader(ctx context.Context) (dialect.ExecQuerier, dialect.ClientType) {
	if m.tx != nil {
		return m.tx, dialect.Write
	}
	b := m.backend()
	client := m.route(b)
	m.logger.DebugContext(ctx, "read routed", "kind", b.kind, "client", client)
	if client == dialect.Write {
		return b.write, dialect.Write
	}
	return b.read, dialect.Read
}

// route picks the pool of a read on b.
func (m *Manager) route(b *backend) dialect.ClientType {
	switch {
	case b.read == nil:
		return dialect.Write
	case b.write == nil:
		return dialect.Read
	}
	sticky, window := b.stickyWindow()
	if sticky && m.registry.WithinWindow(b.kind, m.now(), window) {
		return dialect.Write
	}
	return dialect.Read
}

// Route reports which pool the next read on the backend would use.
func (m *Manager) Route() dialect.ClientType {
	if m.tx != nil {
		return dialect.Write
	}
	return m.route(m.backend())
}
