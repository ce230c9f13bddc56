// Package operation assembles one OperationDetail from a source row by running
// extraction, progress scoring, state mapping, date synthesis and validation
// in a single synchronous pass.
package operation

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/tradeflow/internal/calendar"
	"github.com/sells-group/tradeflow/internal/country"
	"github.com/sells-group/tradeflow/internal/extract"
	"github.com/sells-group/tradeflow/internal/model"
	"github.com/sells-group/tradeflow/internal/progress"
	"github.com/sells-group/tradeflow/internal/states"
	"github.com/sells-group/tradeflow/internal/textutil"
	"github.com/sells-group/tradeflow/internal/timeline"
	"github.com/sells-group/tradeflow/internal/validate"
)

// Namespace is the UUIDv5 namespace for operation ids.
var Namespace = uuid.MustParse("6f1c2a4e-8d3b-5c7a-9e0f-3b2d1a4c5e6f")

// Options configures a Deriver. Zero values fall back to defaults.
type Options struct {
	Tolerance         *decimal.Decimal // nil means progress.DefaultTolerance
	ErrorRatio        decimal.Decimal
	DependencyGap     int
	AlertWindowDays   int
	ReleaseBufferDays int

	// Seed is mixed with each operation id to seed date synthesis, so the
	// same row always gets the same synthesized dates.
	Seed     uint64
	Phases   []timeline.PhaseConfig
	Holidays map[string][]country.MonthDay

	Now func() time.Time
}

// Deriver turns rows into operations. It holds no per-row state and is safe
// for concurrent use.
type Deriver struct {
	calc       *progress.Calculator
	validator  *validate.Validator
	phases     []timeline.PhaseConfig
	calendars  map[string]*calendar.Calendar
	seed       uint64
	bufferDays int
	now        func() time.Time
}

// New returns a Deriver for opts.
func New(opts Options) *Deriver {
	if opts.Tolerance == nil || opts.Tolerance.IsNegative() {
		opts.Tolerance = validate.Tolerance(progress.DefaultTolerance)
	}
	if opts.DependencyGap <= 0 {
		opts.DependencyGap = progress.DefaultDependencyGap
	}
	if opts.ReleaseBufferDays <= 0 {
		opts.ReleaseBufferDays = timeline.DefaultReleaseBufferDays
	}
	if len(opts.Phases) == 0 {
		opts.Phases = timeline.DefaultPhases()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	calc := progress.New(*opts.Tolerance)
	calc.DependencyGap = opts.DependencyGap

	cals := make(map[string]*calendar.Calendar)
	for _, p := range country.All() {
		cals[p.Code] = calendar.ForProfile(calendar.ApplyHolidays(p, opts.Holidays))
	}

	return &Deriver{
		calc: calc,
		validator: validate.New(validate.Options{
			Tolerance:       opts.Tolerance,
			ErrorRatio:      opts.ErrorRatio,
			DependencyGap:   opts.DependencyGap,
			AlertWindowDays: opts.AlertWindowDays,
		}),
		phases:     opts.Phases,
		calendars:  cals,
		seed:       opts.Seed,
		bufferDays: opts.ReleaseBufferDays,
		now:        opts.Now,
	}
}

// Derive builds the operation for row, the index-th data row of its source.
// It returns nil when the row carries neither a client nor a source key.
func Derive(row model.RawRow, index int, profile country.Profile, opts Options) *model.OperationDetail {
	return New(opts).Derive(row, index, profile)
}

// Derive builds the operation for one row. See the package-level Derive.
func (d *Deriver) Derive(row model.RawRow, index int, profile country.Profile) *model.OperationDetail {
	now := d.now()
	key := row.Get(country.ColKey)

	ident := extract.ParseIdentity(row.Get(country.ColIdentity))
	info, issues := extract.GeneralInfo(row.Get(country.ColGeneralInfo))

	// The identity cell wins over the general info block.
	client := ident.Client
	if client == "" {
		client = info.Client
	}
	if client == "" && key == "" {
		zap.L().Warn("operation: row has no client and no key, skipping",
			zap.String("component", "operation"),
			zap.String("country", profile.Code),
			zap.Int("row", index),
		)
		return nil
	}

	id := ID(client, key, index)
	created, hasCreated := textutil.ParseDate(row.Get(country.ColCreated))

	prog := d.calc.Calculate(row, info, profile)

	synth := &timeline.Synthesizer{
		Phases:   d.phases,
		Rand:     timeline.NewRand(d.seed ^ binary.BigEndian.Uint64(id[:8])),
		Calendar: d.calendar(profile),
		Now:      func() time.Time { return now },
	}
	var start time.Time
	if hasCreated {
		start = created
	}
	dates := synth.Synthesize(prog.Phases, start)

	base := now
	if hasCreated {
		base = created
	}
	draws := timeline.FillDrawDueDates(info.Draws, base, info.PaymentTerms)
	releases := timeline.FillReleaseDueDates(info.Releases, d.bufferDays)

	val := d.validator.Validate(validate.Input{
		Client:   client,
		Info:     info,
		Progress: prog,
		Issues:   issues,
	})
	alerts := d.validator.Alerts(validate.AlertInput{
		Draws:      draws,
		Releases:   releases,
		Progress:   prog,
		Validation: val,
		Now:        now,
	})

	if draws == nil {
		draws = []model.Draw{}
	}
	if releases == nil {
		releases = []model.Release{}
	}

	return &model.OperationDetail{
		ID:        id.String(),
		SourceKey: key,
		RowIndex:  index,
		Country:   profile.Code,
		Client:    client,
		TaxID:     ident.TaxID,

		ImporterCountry: info.ImporterCountry,
		ExporterCountry: info.ExporterCountry,
		TotalValue:      info.TotalValue,
		Currency:        info.Currency,
		PaymentTerms:    info.PaymentTerms,
		IncotermBuy:     info.IncotermBuy,
		IncotermSell:    info.IncotermSell,
		Banking:         info.Banking,

		Estados:          states.Map(row, profile),
		Draws:            draws,
		Releases:         releases,
		Progress:         prog,
		Validation:       val,
		Timeline:         dates,
		Alerts:           alerts,
		ExtractionIssues: issues,
		DerivedAt:        now,
	}
}

// DeriveAll derives every row in order and drops the rows Derive skips.
func (d *Deriver) DeriveAll(rows []model.RawRow, profile country.Profile) []*model.OperationDetail {
	out := make([]*model.OperationDetail, 0, len(rows))
	for i, row := range rows {
		if op := d.Derive(row, i, profile); op != nil {
			out = append(out, op)
		}
	}
	return out
}

func (d *Deriver) calendar(p country.Profile) *calendar.Calendar {
	if c, ok := d.calendars[p.Code]; ok {
		return c
	}
	return calendar.ForProfile(p)
}

// ID is the stable operation id for a client, source key and row index.
func ID(client, key string, index int) uuid.UUID {
	name := strings.Join([]string{textutil.NormalizeName(client), strings.TrimSpace(key), strconv.Itoa(index)}, "|")
	return uuid.NewSHA1(Namespace, []byte(name))
}
