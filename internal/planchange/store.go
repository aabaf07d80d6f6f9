package planchange

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/pkg/metrics"
)

// Store keeps flows in memory and expires the ones left untouched for ttl.
type Store struct {
	mu    sync.RWMutex
	flows map[int64]*flow

	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewStore(ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) *Store {
	return &Store{
		flows:   make(map[int64]*flow),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		metrics: m,
	}
}

func (s *Store) put(f *flow) {
	s.mu.Lock()
	s.flows[f.id] = f
	n := len(s.flows)
	s.mu.Unlock()

	s.metrics.SetActiveFlows(n)
}

// get returns the flow only to the organization that owns it.
func (s *Store) get(id, orgID int64) (*flow, error) {
	s.mu.RLock()
	f, ok := s.flows[id]
	s.mu.RUnlock()

	if !ok || f.orgID != orgID {
		return nil, ErrFlowNotFound
	}
	return f, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flows)
}

// Sweep removes flows idle for longer than the TTL and reports how many were
// removed. Redirected flows stay readable until then.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	removed := 0
	for id, f := range s.flows {
		f.mu.Lock()
		expired := f.updatedAt.Before(cutoff)
		if expired && f.cancel != nil {
			f.cancel()
			f.cancel = nil
		}
		f.mu.Unlock()

		if expired {
			delete(s.flows, id)
			removed++
		}
	}
	n := len(s.flows)
	s.mu.Unlock()

	s.metrics.SetActiveFlows(n)
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("plan change janitor started", zap.Duration("interval", interval), zap.Duration("ttl", s.ttl))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("plan change janitor stopped")
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Debug("plan change flows expired", zap.Int("count", removed))
			}
		}
	}
}
