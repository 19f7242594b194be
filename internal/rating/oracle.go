package rating

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"

	"github.com/mssb/matchmaker/internal/metrics"
	"github.com/mssb/matchmaker/internal/store"
	"github.com/mssb/matchmaker/pkg/types"
)

var logger = logrus.WithFields(logrus.Fields{
	"app":       "matchmaking",
	"component": "rating.oracle",
})

// Oracle answers rating questions for the matchmaker. Lookups go to the store
// with a bounded timeout; populations are served from the last successful
// refresh so matchmaking never waits on the store.
type Oracle struct {
	st            store.RatingStore
	defaultRating int
	timeout       time.Duration

	mu          sync.RWMutex
	populations map[string][]int
}

func NewOracle(st store.RatingStore, defaultRating int, timeout time.Duration) *Oracle {
	return &Oracle{
		st:            st,
		defaultRating: defaultRating,
		timeout:       timeout,
		populations:   map[string][]int{},
	}
}

// LastRating falls back to the default rating for unknown players and when the
// store cannot be reached. The error is informational only.
func (o *Oracle) LastRating(ctx context.Context, playerID string, mode types.Mode) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	r, ok, err := o.st.LastRating(ctx, mode.Pool(), playerID)
	if err != nil {
		metrics.OracleFailures.WithLabelValues("lookup").Inc()
		return o.defaultRating, err
	}
	if !ok {
		return o.defaultRating, nil
	}
	return r, nil
}

// Population returns the cached ratings for mode, highest first. The slice is
// shared and must not be modified.
func (o *Oracle) Population(mode types.Mode) []int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.populations[mode.Pool()]
}

// Refresh reloads every pool. A pool that fails keeps its previous snapshot.
func (o *Oracle) Refresh(ctx context.Context) error {
	var firstErr error
	for _, pool := range pools() {
		pctx, cancel := context.WithTimeout(ctx, o.timeout)
		pop, err := o.st.Population(pctx, pool)
		cancel()
		if err != nil {
			metrics.OracleFailures.WithLabelValues("population").Inc()
			logger.WithError(err).WithField("pool", pool).Warn("population refresh failed, keeping last snapshot")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		o.mu.Lock()
		o.populations[pool] = pop
		o.mu.Unlock()
		logger.WithFields(logrus.Fields{"pool": pool, "size": len(pop)}).Debug("population refreshed")
	}
	return firstErr
}

// Warm retries the first refresh a few times so the server does not start
// matching against empty populations when the store is slow to come up.
func (o *Oracle) Warm(ctx context.Context, attempts uint64) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), attempts), ctx)
	return backoff.Retry(func() error { return o.Refresh(ctx) }, b)
}

// Run refreshes on every interval until ctx is done.
func (o *Oracle) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = o.Refresh(ctx)
		}
	}
}

func pools() []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range types.Modes {
		if p := m.Pool(); !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
