package leadsheet

import (
	"log/slog"
	"slices"

	"github.com/jjazzboss/JJazzLab-sub029/internal/config"
	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
)

// MaxSize is the largest leadsheet size in bars.
const MaxSize = config.MaxBars

// rules are the immutable settings shared by a Factory and its Stores.
type rules struct {
	maxSize  int
	epsilon  music.Beat
	reserved map[string]struct{} // folded names
	cfg      config.Config
}

// Factory creates Stores sharing one set of rules.
// There is no process-wide factory: callers hold the one they built.
type Factory struct {
	cfg    config.Config
	logger *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithConfig replaces the whole configuration.
func WithConfig(cfg config.Config) Option {
	return func(f *Factory) {
		f.cfg = cfg
	}
}

// WithLogger sets the logger used by created Stores.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = l
	}
}

// WithMaxSize lowers the maximum size of created Stores. Values outside
// [1, MaxSize] are ignored.
func WithMaxSize(n int) Option {
	return func(f *Factory) {
		if n >= 1 && n <= MaxSize {
			f.cfg.MaxSize = n
		}
	}
}

// WithReservedNames sets names that can never be used for a Section.
func WithReservedNames(names ...string) Option {
	return func(f *Factory) {
		f.cfg.ReservedNames = slices.Clone(names)
	}
}

// WithBeatEpsilon sets the resolution used when clamping beats.
func WithBeatEpsilon(eps music.Beat) Option {
	return func(f *Factory) {
		if eps.Sign() > 0 {
			f.cfg.BeatEpsilon = eps
		}
	}
}

// NewFactory creates a Factory from config.Default() and opts.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{cfg: config.Default()}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Config returns the factory configuration.
func (f *Factory) Config() config.Config {
	return f.cfg
}

func (f *Factory) rules() *rules {
	r := &rules{
		maxSize:  f.cfg.MaxSize,
		epsilon:  f.cfg.BeatEpsilon,
		reserved: make(map[string]struct{}, len(f.cfg.ReservedNames)),
		cfg:      f.cfg,
	}
	for _, n := range f.cfg.ReservedNames {
		r.reserved[foldName(n)] = struct{}{}
	}
	return r
}

// New creates a leadsheet of size bars whose bar-0 Section is (name, ts).
func (f *Factory) New(name string, ts music.TimeSignature, size int) (*Store, error) {
	r := f.rules()
	clean, err := r.checkName(name)
	if err != nil {
		return nil, err
	}
	if !ts.Valid() {
		return nil, invalidf("time signature %s", ts)
	}
	if size < 1 || size > r.maxSize {
		return nil, invalidf("size %d outside [1, %d]", size, r.maxSize)
	}

	s := &Store{
		rules:  r,
		logger: f.logger,
		clock:  &opClock{},
		size:   size,
		nextID: 2,
	}
	init := NewSection(clean, ts, 0)
	init.id = 1
	s.items = []Item{init}
	return s, nil
}

// NewDefault creates a leadsheet from the configured defaults.
func (f *Factory) NewDefault() (*Store, error) {
	return f.New(f.cfg.DefaultSection, f.cfg.DefaultTimeSignature, f.cfg.DefaultSize)
}

// Store is the ordered item collection of one leadsheet.
type Store struct {
	rules     *rules
	logger    *slog.Logger
	clock     *opClock
	size      int
	items     []Item // sorted by compareItems
	nextID    ItemID
	listeners []ChangeListener
	editing   bool
}

// Copy returns a deep copy of s without its listeners.
// Item snapshots are immutable values, so sharing them is safe.
func (s *Store) Copy() *Store {
	return &Store{
		rules:  s.rules,
		logger: s.logger,
		clock:  &opClock{last: s.clock.last},
		size:   s.size,
		items:  slices.Clone(s.items),
		nextID: s.nextID,
	}
}

// Size returns the number of bars.
func (s *Store) Size() int {
	return s.size
}

// Len returns the number of items, Sections included.
func (s *Store) Len() int {
	return len(s.items)
}

// Config returns the configuration the Store was created with.
func (s *Store) Config() config.Config {
	return s.rules.cfg
}

// LastOperation returns the last sequence number issued, vetoed operations
// included.
func (s *Store) LastOperation() int64 {
	return s.clock.last
}
