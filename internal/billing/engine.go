package billing

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"burstbill/internal/domain"
)

// SampleSource loads the traffic series for one interface over a window.
// Implementations must be safe for concurrent use.
type SampleSource interface {
	Samples(ctx context.Context, ref string, start, end time.Time) ([]domain.Sample, error)
}

type Logger interface {
	Printf(string, ...any)
	Warnf(string, ...any)
}

type Metrics interface {
	ObserveBillingRun(duration time.Duration, customers, skipped int, err error)
}

type Config struct {
	Percentile          float64
	Concurrency         int
	FetchTimeout        time.Duration
	OmitFailedCustomers bool
}

type Engine struct {
	source  SampleSource
	log     Logger
	cfg     Config
	metrics Metrics
}

func NewEngine(source SampleSource, log Logger, cfg Config, metrics Metrics) *Engine {
	if cfg.Percentile <= 0 || cfg.Percentile > 100 {
		cfg.Percentile = 95
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	return &Engine{source: source, log: log, cfg: cfg, metrics: metrics}
}

type interfaceResult struct {
	mbps float64
	err  error
}

// Run computes one billable figure per customer group for the period:
// the max of the group's per-interface percentiles. Interface failures are
// skipped with a warning and never abort the run; a customer whose every
// interface failed bills 0.0 unless configured to be omitted.
func (e *Engine) Run(ctx context.Context, period domain.Period, groups []domain.CustomerGroup) (results []domain.BillingResult, err error) {
	start := time.Now()
	skipped := 0
	defer func() {
		if e.metrics != nil {
			e.metrics.ObserveBillingRun(time.Since(start), len(results), skipped, err)
		}
	}()

	// Every interface fetch is an independent read, so fan out with a
	// bounded pool and let each goroutine fill its own pre-allocated slot.
	slots := make([][]interfaceResult, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for gi, group := range groups {
		slots[gi] = make([]interfaceResult, len(group.Interfaces))
		for ii, iface := range group.Interfaces {
			gi, ii, iface := gi, ii, iface
			g.Go(func() error {
				mbps, ferr := e.interfacePercentile(gctx, iface, period)
				slots[gi][ii] = interfaceResult{mbps: mbps, err: ferr}
				return nil
			})
		}
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results = make([]domain.BillingResult, 0, len(groups))
	for gi, group := range groups {
		if len(group.Interfaces) == 0 {
			continue
		}
		best := 0.0
		usable := 0
		for ii, iface := range group.Interfaces {
			res := slots[gi][ii]
			if res.err != nil {
				skipped++
				e.log.Warnf("reading %s: %v", iface.SeriesRef, res.err)
				continue
			}
			usable++
			if res.mbps > best {
				best = res.mbps
			}
		}
		if usable == 0 {
			e.log.Warnf("no usable interfaces for customer %q; billing 0.00 Mbps", group.Customer)
			if e.cfg.OmitFailedCustomers {
				continue
			}
		}
		results = append(results, domain.BillingResult{Customer: group.Customer, Mbps: best})
	}

	e.log.Printf("billed %d customers over %s (%d interfaces skipped)", len(results), period.Label, skipped)
	return results, nil
}

func (e *Engine) interfacePercentile(ctx context.Context, iface domain.Interface, period domain.Period) (float64, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	samples, err := e.source.Samples(fetchCtx, iface.SeriesRef, period.Start, period.End)
	if err != nil {
		return 0, err
	}
	vals, err := CombinedMbps(samples)
	if err != nil {
		return 0, err
	}
	return Percentile(vals, e.cfg.Percentile), nil
}
