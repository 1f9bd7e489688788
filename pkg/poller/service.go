package poller

import (
	"context"
	"sync"

	"github.com/smartagrinode/agrinode/pkg/logging"
	"go.uber.org/zap"
)

// Service tracks background polls by key. Starting a poll under a key that is
// already running cancels the previous one, so at most one poll per key runs.
type Service struct {
	logger  *logging.Logger
	mu      sync.Mutex
	handles map[string]*Handle
}

// NewService creates a new Service
func NewService(logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		logger:  logger.Named("poller"),
		handles: make(map[string]*Handle),
	}
}

// Launch starts job on p under key, cancelling any poll already running
// there. The previous poll is not waited for; none of its callbacks start
// after Launch returns. A finished poll is forgotten before onDone runs, so
// onDone may launch the same key again.
func Launch[T any](ctx context.Context, s *Service, key string, p *Poller[T], job Job[T], onDone func(T, error)) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.handles[key]; ok {
		prev.stop()
		s.logger.Debug(ctx, "replaced running poll", zap.String("key", key))
	}

	var h *Handle
	h = p.Start(ctx, job, func(v T, err error) {
		s.mu.Lock()
		if s.handles[key] == h {
			delete(s.handles, key)
		}
		s.mu.Unlock()

		if onDone != nil {
			onDone(v, err)
		}
	})
	s.handles[key] = h
	return h
}

// Running reports whether a poll under key has not finished yet.
func (s *Service) Running(key string) bool {
	s.mu.Lock()
	h, ok := s.handles[key]
	s.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-h.Done():
		return false
	default:
		return !h.Cancelled()
	}
}

// Cancel stops the poll under key, if any. It does not wait for a callback
// in flight, so it is safe to call from one.
func (s *Service) Cancel(key string) {
	s.mu.Lock()
	h, ok := s.handles[key]
	delete(s.handles, key)
	s.mu.Unlock()
	if ok {
		h.stop()
	}
}

// Stop cancels every tracked poll and waits for them to exit. It must not be
// called from a poll callback.
func (s *Service) Stop() {
	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[string]*Handle)
	s.mu.Unlock()

	for _, h := range handles {
		h.stop()
	}
	for _, h := range handles {
		h.Wait()
	}
	s.logger.Debug(context.Background(), "poller service stopped", zap.Int("cancelled", len(handles)))
}
