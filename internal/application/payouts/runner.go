package payouts

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"coinease-backend/internal/application/investments"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// KeyLastRun holds the JSON summary of the most recent run.
const KeyLastRun = "payouts:last_run"

// Source lists investments that may be due.
type Source interface {
	PayableIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Processor evaluates one investment.
type Processor interface {
	ProcessPayout(ctx context.Context, id uuid.UUID, now time.Time) (investments.Result, error)
}

// Summary is what one run did.
type Summary struct {
	StartedAt time.Time                   `json:"started_at"`
	Duration  string                      `json:"duration"`
	Evaluated int                         `json:"evaluated"`
	Outcomes  map[investments.Outcome]int `json:"outcomes"`
	Failed    int                         `json:"failed"`
	Credited  decimal.Decimal             `json:"credited"`
}

type Runner struct {
	Source    Source
	Processor Processor
	Workers   int
	Metrics   *Metrics
	Rdb       *redis.Client
}

func NewRunner(src Source, proc Processor, workers int, m *Metrics, rdb *redis.Client) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{Source: src, Processor: proc, Workers: workers, Metrics: m, Rdb: rdb}
}

// RunOnce evaluates every payable investment at now. A failing investment is
// logged and counted; the rest of the run continues.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) (*Summary, error) {
	start := time.Now()
	ids, err := r.Source.PayableIDs(ctx)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		StartedAt: now,
		Evaluated: len(ids),
		Outcomes:  map[investments.Outcome]int{},
		Credited:  decimal.Zero,
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			res, err := r.Processor.ProcessPayout(gctx, id, now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Failed++
				if r.Metrics != nil {
					r.Metrics.Failures.Inc()
				}
				log.Error().Err(err).Str("investment_id", id.String()).Msg("payout failed")
				return nil
			}
			sum.Outcomes[res.Outcome]++
			sum.Credited = sum.Credited.Add(res.Credited)
			if r.Metrics != nil {
				r.Metrics.Outcomes.WithLabelValues(string(res.Outcome)).Inc()
				if res.Outcome.Paid() {
					r.Metrics.Credited.Add(res.Credited.InexactFloat64())
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	sum.Duration = elapsed.String()
	if r.Metrics != nil {
		r.Metrics.RunDuration.Observe(elapsed.Seconds())
		r.Metrics.LastRunItems.Set(float64(len(ids)))
	}
	if r.Rdb != nil {
		if b, err := json.Marshal(sum); err == nil {
			if err := r.Rdb.Set(ctx, KeyLastRun, b, 0).Err(); err != nil {
				log.Warn().Err(err).Msg("could not store payout run summary")
			}
		}
	}

	log.Info().
		Int("evaluated", sum.Evaluated).
		Int("failed", sum.Failed).
		Str("credited", sum.Credited.StringFixed(2)).
		Dur("elapsed", elapsed).
		Msg("payout run finished")
	return sum, ctx.Err()
}
