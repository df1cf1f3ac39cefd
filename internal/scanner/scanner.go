// Package scanner runs one complete scan cycle: fetch, extract, dedup,
// persist, notify.
package scanner

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Can0Ngu1/bot-web/internal/config"
	"github.com/Can0Ngu1/bot-web/internal/dedup"
	"github.com/Can0Ngu1/bot-web/internal/extract"
	"github.com/Can0Ngu1/bot-web/internal/fetch"
	"github.com/Can0Ngu1/bot-web/internal/model"
	"github.com/Can0Ngu1/bot-web/internal/store"
)

// defaultCycleTimeout bounds a whole cycle. The fetcher's readiness wait
// covers a page that never renders; this covers everything else (hung
// navigation, slow notify call).
const defaultCycleTimeout = 5 * time.Minute

// Fetcher produces the rendered search page for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q fetch.Query) (string, error)
}

// Notifier dispatches one cycle's new records.
type Notifier interface {
	Notify(ctx context.Context, records []model.BidRecord) error
}

// Scanner owns the cycle pipeline and the process-wide "one cycle at a
// time" gate. Scheduler ticks and manual triggers both funnel through
// TryRun; whichever loses the gate is dropped, not queued.
type Scanner struct {
	fetcher  Fetcher
	archive  store.Archive
	notified store.Notified
	notifier Notifier
	snapshot func() config.Config
	timeout  time.Duration
	now      func() time.Time

	inFlight atomic.Bool

	mu   sync.Mutex
	last *model.CycleResult
}

// New wires a Scanner. snapshot is read once per cycle, so a replaced
// config takes effect on the next cycle, never mid-cycle.
func New(fetcher Fetcher, archive store.Archive, notified store.Notified, notifier Notifier, snapshot func() config.Config) *Scanner {
	return &Scanner{
		fetcher:  fetcher,
		archive:  archive,
		notified: notified,
		notifier: notifier,
		snapshot: snapshot,
		timeout:  defaultCycleTimeout,
		now:      time.Now,
	}
}

// TryRun executes one cycle unless another is already in flight, in which
// case it reports false and does nothing.
func (s *Scanner) TryRun(ctx context.Context) (model.CycleResult, bool) {
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Printf("[scanner] Cycle already in flight — trigger dropped")
		return model.CycleResult{}, false
	}
	defer s.inFlight.Store(false)

	res := s.runCycle(ctx)

	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()
	return res, true
}

// InFlight reports whether a cycle is currently executing.
func (s *Scanner) InFlight() bool { return s.inFlight.Load() }

// LastResult returns the most recent cycle outcome, if any cycle has run.
func (s *Scanner) LastResult() (model.CycleResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return model.CycleResult{}, false
	}
	return *s.last, true
}

func (s *Scanner) runCycle(parent context.Context) model.CycleResult {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	cfg := s.snapshot()
	res := model.CycleResult{ID: uuid.NewString(), StartedAt: s.now()}
	log.Printf("[scanner] Cycle %s started", res.ID)

	seen, err := s.notified.Load(ctx)
	if err != nil {
		// Running against an empty set instead would re-notify every
		// visible bid, so the cycle fails here.
		return s.fail(res, err, "load notified set")
	}
	log.Printf("[scanner] %d code(s) notified previously", seen.Len())

	html, err := s.fetcher.Fetch(ctx, fetch.QueryUpTo(cfg.Keyword, cfg.SearchFrom, s.now()))
	if err != nil {
		if errors.Is(err, fetch.ErrTimeout) {
			return s.fail(res, err, "page never became ready")
		}
		return s.fail(res, err, "fetch")
	}

	candidates, skipped := extract.Records(html)
	res.SkippedRows = skipped

	fresh, updated := dedup.Filter(seen, candidates)
	res.NewRecords = fresh

	res.PersistOK = true
	if len(fresh) > 0 {
		if err := s.archive.Prepend(ctx, fresh); err != nil {
			log.Printf("[scanner] Archive write failed: %v", err)
			res.PersistOK = false
		}
		if err := s.notified.Save(ctx, updated); err != nil {
			// Affected codes may be re-notified next cycle; accepted.
			log.Printf("[scanner] Notified-set write failed: %v", err)
			res.PersistOK = false
		}
	}

	// Zero-new cycles still notify: the informational message doubles as a
	// liveness heartbeat for the channel.
	if err := s.notifier.Notify(ctx, fresh); err != nil {
		log.Printf("[scanner] Notify failed: %v", err)
	} else {
		res.NotifyOK = true
	}

	res.Success = true
	res.FinishedAt = s.now()
	log.Printf("[scanner] Cycle %s done — new=%d skipped=%d persist_ok=%v notify_ok=%v",
		res.ID, res.NewCount(), res.SkippedRows, res.PersistOK, res.NotifyOK)
	return res
}

func (s *Scanner) fail(res model.CycleResult, err error, step string) model.CycleResult {
	res.Err = err
	res.Success = false
	res.FinishedAt = s.now()
	log.Printf("[scanner] Cycle %s failed (%s): %v", res.ID, step, err)
	return res
}
