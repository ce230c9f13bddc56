// Package service keeps the derived operations of each configured source file
// in a time-boxed cache and rebuilds them on demand.
package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/tradeflow/internal/country"
	"github.com/sells-group/tradeflow/internal/metrics"
	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/operation"
	"github.com/sells-group/tradeflow/internal/rows"
)

// DefaultTTL is the snapshot lifetime when none is configured.
const DefaultTTL = time.Minute

var (
	// ErrSourceUnavailable is returned when a source file is missing or
	// unreadable and no earlier snapshot of it exists.
	ErrSourceUnavailable = eris.New("service: source unavailable")
	// ErrUnknownSource is returned for a path that is not configured.
	ErrUnknownSource = eris.New("service: unknown source")
)

// Source is one configured file. An empty Country is detected from the header.
type Source struct {
	Path    string
	Country string
}

// Snapshot is the complete result of one pass over a source file. Snapshots
// are replaced as a whole and must not be modified by callers.
type Snapshot struct {
	Source     string                   `json:"source"`
	Country    string                   `json:"country,omitempty"`
	Available  bool                     `json:"available"`
	Stale      bool                     `json:"stale,omitempty"`
	Reason     string                   `json:"reason,omitempty"`
	Fields     []string                 `json:"fields,omitempty"`
	Rows       []model.RawRow           `json:"rows,omitempty"`
	Warnings   []rows.RowWarning        `json:"warnings,omitempty"`
	Operations []*model.OperationDetail `json:"operations,omitempty"`
	Skipped    int                      `json:"skipped"`
	LoadedAt   time.Time                `json:"loaded_at"`
}

// Options configures a Service.
type Options struct {
	Sources []Source
	TTL     time.Duration
	Parse   rows.Options
	Deriver *operation.Deriver
}

// Service serves snapshots of the configured sources.
type Service struct {
	sources []Source
	parse   rows.Options
	deriver *operation.Deriver
	cache   *cache.Cache

	// locks serializes loads of the same source.
	locks map[string]*sync.Mutex

	lastMu sync.RWMutex
	last   map[string]*Snapshot

	log *zap.Logger
}

// New creates a Service.
func New(opts Options) *Service {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if opts.Deriver == nil {
		opts.Deriver = operation.New(operation.Options{})
	}
	locks := make(map[string]*sync.Mutex, len(opts.Sources))
	for _, src := range opts.Sources {
		locks[src.Path] = &sync.Mutex{}
	}
	return &Service{
		sources: opts.Sources,
		parse:   opts.Parse,
		deriver: opts.Deriver,
		cache:   cache.New(ttl, 2*ttl),
		locks:   locks,
		last:    make(map[string]*Snapshot),
		log:     zap.L().With(zap.String("component", "service")),
	}
}

// Sources returns the configured sources in order.
func (s *Service) Sources() []Source {
	return append([]Source(nil), s.sources...)
}

// Snapshots returns one snapshot per source, in configuration order. Sources
// are loaded concurrently; an unavailable source yields a snapshot with
// Available=false instead of an error.
func (s *Service) Snapshots(ctx context.Context) ([]*Snapshot, error) {
	out := make([]*Snapshot, len(s.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "service: snapshots")
			}
			out[i] = s.snapshot(src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Operations returns the operations of every available source, concatenated
// in configuration order. It fails only when no source is available.
func (s *Service) Operations(ctx context.Context) ([]*model.OperationDetail, error) {
	snaps, err := s.Snapshots(ctx)
	if err != nil {
		return nil, err
	}
	var ops []*model.OperationDetail
	available := 0
	for _, snap := range snaps {
		if !snap.Available {
			continue
		}
		available++
		ops = append(ops, snap.Operations...)
	}
	if available == 0 && len(snaps) > 0 {
		return nil, eris.Wrap(ErrSourceUnavailable, "service: no source could be loaded")
	}
	if ops == nil {
		ops = []*model.OperationDetail{}
	}
	return ops, nil
}

// Operation looks up one operation by id.
func (s *Service) Operation(ctx context.Context, id string) (*model.OperationDetail, error) {
	ops, err := s.Operations(ctx)
	if err != nil {
		return nil, err
	}
	for _, op := range ops {
		if op.ID == id {
			return op, nil
		}
	}
	return nil, nil
}

// Rows returns the snapshot of the source at path, or of the first source
// when path is empty.
func (s *Service) Rows(_ context.Context, path string) (*Snapshot, error) {
	src, ok := s.lookup(path)
	if !ok {
		return nil, eris.Wrapf(ErrUnknownSource, "service: %s", path)
	}
	snap := s.snapshot(src)
	if !snap.Available {
		return snap, eris.Wrapf(ErrSourceUnavailable, "service: %s: %s", src.Path, snap.Reason)
	}
	return snap, nil
}

// Refresh drops every cached snapshot and reloads all sources.
func (s *Service) Refresh(ctx context.Context) ([]*Snapshot, error) {
	s.Invalidate()
	return s.Snapshots(ctx)
}

// Invalidate drops every cached snapshot. The last good snapshots are kept
// for stale serving.
func (s *Service) Invalidate() {
	s.cache.Flush()
}

// InvalidateSource drops the cached snapshot of one source.
func (s *Service) InvalidateSource(path string) {
	s.cache.Delete(path)
}

// Stats inspects every source file without parsing it.
func (s *Service) Stats() ([]rows.Stats, error) {
	out := make([]rows.Stats, 0, len(s.sources))
	for _, src := range s.sources {
		st, err := rows.FileStats(src.Path, s.parse.RecordMarker)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *Service) lookup(path string) (Source, bool) {
	if path == "" && len(s.sources) > 0 {
		return s.sources[0], true
	}
	for _, src := range s.sources {
		if src.Path == path {
			return src, true
		}
	}
	return Source{}, false
}

// snapshot returns the cached snapshot of src, loading it when the slot is
// empty. A failed load falls back to the last good snapshot marked stale.
func (s *Service) snapshot(src Source) *Snapshot {
	if v, ok := s.cache.Get(src.Path); ok {
		return v.(*Snapshot)
	}

	mu := s.locks[src.Path]
	if mu == nil {
		mu = &sync.Mutex{}
	}
	mu.Lock()
	defer mu.Unlock()

	// Another caller may have loaded it while we waited.
	if v, ok := s.cache.Get(src.Path); ok {
		return v.(*Snapshot)
	}

	snap := s.load(src)
	if snap.Available {
		s.cache.SetDefault(src.Path, snap)
		s.lastMu.Lock()
		s.last[src.Path] = snap
		s.lastMu.Unlock()
		return snap
	}

	metrics.RecordUnavailable(src.Path)
	s.lastMu.RLock()
	prev := s.last[src.Path]
	s.lastMu.RUnlock()
	if prev == nil {
		return snap
	}

	s.log.Warn("service: serving stale snapshot",
		zap.String("source", src.Path),
		zap.String("reason", snap.Reason),
		zap.Time("loaded_at", prev.LoadedAt),
	)
	metrics.RecordSnapshotAge(src.Path, time.Since(prev.LoadedAt))
	stale := *prev
	stale.Stale = true
	stale.Reason = snap.Reason
	return &stale
}

// load runs one full pass: read, parse, detect country, derive.
func (s *Service) load(src Source) *Snapshot {
	start := time.Now()
	snap := &Snapshot{Source: src.Path, LoadedAt: start}
	log := s.log.With(zap.String("source", src.Path))

	if _, err := os.Stat(src.Path); err != nil {
		snap.Reason = "unreadable: " + err.Error()
		if errors.Is(err, fs.ErrNotExist) {
			snap.Reason = "source file not found"
		}
		log.Warn("service: source unavailable", zap.String("reason", snap.Reason))
		return snap
	}

	res, err := s.read(src.Path)
	if err != nil {
		snap.Reason = err.Error()
		log.Warn("service: source could not be parsed", zap.Error(err))
		return snap
	}

	profile := country.Detect(res.Fields)
	if src.Country != "" {
		p, err := country.ByCode(src.Country)
		if err != nil {
			snap.Reason = err.Error()
			log.Error("service: bad country for source", zap.Error(err))
			return snap
		}
		profile = p
	}

	ops := s.deriver.DeriveAll(res.Rows, profile)

	m := metrics.ForCountry(profile.Code)
	for _, op := range ops {
		m.RecordOperation(op.Validation.Valid)
		for _, a := range op.Alerts {
			metrics.RecordAlert(string(a.Kind), string(a.Severity))
		}
	}
	m.RecordSkipped(len(res.Rows) - len(ops))
	m.RecordParse(len(res.Rows), len(res.Warnings), time.Since(start))

	snap.Available = true
	snap.Country = profile.Code
	snap.Fields = res.Fields
	snap.Rows = res.Rows
	snap.Warnings = res.Warnings
	snap.Operations = ops
	snap.Skipped = len(res.Rows) - len(ops)

	log.Info("service: source loaded",
		zap.String("country", profile.Code),
		zap.Int("rows", len(res.Rows)),
		zap.Int("operations", len(ops)),
		zap.Int("dropped", len(res.Warnings)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return snap
}

// read parses a delimited text export, or a workbook when the file has an
// .xlsx extension.
func (s *Service) read(path string) (*rows.Result, error) {
	if rows.IsWorkbook(path) {
		return rows.ParseXLSX(path, "")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "service: read %s", path)
	}
	return rows.Parse(string(data), s.parse)
}
