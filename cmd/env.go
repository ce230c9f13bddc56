package main

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/tradeflow/internal/calendar"
	"github.com/sells-group/tradeflow/internal/config"
	"github.com/sells-group/tradeflow/internal/operation"
	"github.com/sells-group/tradeflow/internal/rows"
	"github.com/sells-group/tradeflow/internal/service"
	"github.com/sells-group/tradeflow/internal/timeline"
	"github.com/sells-group/tradeflow/internal/validate"
)

// parseOptions maps the source settings onto the row parser options.
func parseOptions(sc config.SourceConfig) (rows.Options, error) {
	opts := rows.Options{MinFieldRatio: sc.MinFieldRatio}

	if d := []rune(sc.Delimiter); len(d) == 1 {
		opts.Delimiter = d[0]
	}
	if marker := strings.TrimSpace(sc.RecordMarker); marker != "" {
		re, err := regexp.Compile(marker)
		if err != nil {
			return rows.Options{}, eris.Wrap(err, "source.record_marker")
		}
		opts.RecordMarker = re
	}
	return opts, nil
}

// initDeriver builds the deriver, loading the optional phase and holiday
// override files.
func initDeriver(c *config.Config) (*operation.Deriver, error) {
	opts := operation.Options{
		Tolerance:         validate.Tolerance(decimal.NewFromFloat(c.Reconcile.Tolerance)),
		ErrorRatio:        decimal.NewFromFloat(c.Reconcile.ErrorRatio),
		DependencyGap:     c.Reconcile.DependencyGap,
		AlertWindowDays:   c.Alerts.WindowDays,
		ReleaseBufferDays: c.Timeline.ReleaseBufferDays,
		Seed:              c.Timeline.Seed,
	}

	if c.Timeline.PhasesFile != "" {
		phases, err := timeline.LoadPhases(c.Timeline.PhasesFile)
		if err != nil {
			return nil, err
		}
		opts.Phases = phases
		zap.L().Info("loaded phase overrides", zap.String("file", c.Timeline.PhasesFile))
	}
	if c.Timeline.HolidaysFile != "" {
		holidays, err := calendar.LoadHolidays(c.Timeline.HolidaysFile)
		if err != nil {
			return nil, err
		}
		opts.Holidays = holidays
		zap.L().Info("loaded holiday overrides",
			zap.String("file", c.Timeline.HolidaysFile),
			zap.Int("countries", len(holidays)),
		)
	}

	return operation.New(opts), nil
}

// initService validates the config for mode and builds the service.
func initService(c *config.Config, mode string) (*service.Service, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	parse, err := parseOptions(c.Source)
	if err != nil {
		return nil, err
	}
	deriver, err := initDeriver(c)
	if err != nil {
		return nil, err
	}

	sources := make([]service.Source, 0, len(c.Source.Files))
	for _, f := range c.Source.Files {
		sources = append(sources, service.Source{
			Path:    f.Path,
			Country: strings.ToUpper(strings.TrimSpace(f.Country)),
		})
	}

	return service.New(service.Options{
		Sources: sources,
		TTL:     c.Source.CacheTTL(),
		Parse:   parse,
		Deriver: deriver,
	}), nil
}
