package scanner_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Can0Ngu1/bot-web/internal/config"
	"github.com/Can0Ngu1/bot-web/internal/dedup"
	"github.com/Can0Ngu1/bot-web/internal/fetch"
	"github.com/Can0Ngu1/bot-web/internal/model"
	"github.com/Can0Ngu1/bot-web/internal/scanner"
)

// ── fakes ──────────────────────────────────────────────────────────────────

type fakeFetcher struct {
	html    string
	err     error
	block   chan struct{} // when set, Fetch blocks until closed
	fetches atomic.Int64
}

func (f *fakeFetcher) Fetch(ctx context.Context, q fetch.Query) (string, error) {
	f.fetches.Add(1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return "", f.err
	}
	return f.html, nil
}

type memArchive struct {
	records []model.BidRecord
	err     error
}

func (a *memArchive) Prepend(_ context.Context, recs []model.BidRecord) error {
	if a.err != nil {
		return a.err
	}
	a.records = append(append([]model.BidRecord{}, recs...), a.records...)
	return nil
}

func (a *memArchive) All(context.Context) ([]model.BidRecord, error) { return a.records, nil }

type memNotified struct {
	set     dedup.Set
	loadErr error
	saveErr error
}

func (n *memNotified) Load(context.Context) (dedup.Set, error) {
	if n.loadErr != nil {
		return nil, n.loadErr
	}
	return n.set.Clone(), nil
}

func (n *memNotified) Save(_ context.Context, s dedup.Set) error {
	if n.saveErr != nil {
		return n.saveErr
	}
	n.set = s.Clone()
	return nil
}

type fakeNotifier struct {
	batches [][]model.BidRecord
	err     error
}

func (n *fakeNotifier) Notify(_ context.Context, recs []model.BidRecord) error {
	n.batches = append(n.batches, recs)
	return n.err
}

func snapshot() config.Config {
	cfg := config.Config{Keyword: "Chiếu sáng", SearchFrom: "05/08/2025"}
	cfg.Clamp()
	return cfg
}

// resultRow renders one portal result row; leave title empty to make the
// row malformed.
func resultRow(code, title string) string {
	s := fmt.Sprintf(`<tr><td><span class="bidding-code">%s</span></td>`, code)
	if title != "" {
		s += fmt.Sprintf(`<td data-column="Gói thầu"><a href="/tb/%s">%s</a></td>`, code, title)
	}
	s += `<td data-column="Ngày đăng tải">21/08/2025</td></tr>`
	return s
}

func resultPage(rows ...string) string {
	body := "<html><body><table>"
	for _, r := range rows {
		body += r
	}
	return body + "</table></body></html>"
}

// ── TryRun ─────────────────────────────────────────────────────────────────

// The end-to-end pipeline scenario: seen {A1}, page rows A1, A2, A2 and a
// malformed A3 → exactly A2 is new, registered and notified.
func TestTryRun_Pipeline(t *testing.T) {
	fetcher := &fakeFetcher{html: resultPage(
		resultRow("A1", "first"),
		resultRow("A2", "second"),
		resultRow("A2", "second again"),
		resultRow("A3", ""),
	)}
	archive := &memArchive{}
	notified := &memNotified{set: dedup.NewSet("A1")}
	notifier := &fakeNotifier{}

	s := scanner.New(fetcher, archive, notified, notifier, snapshot)
	res, ran := s.TryRun(context.Background())
	if !ran {
		t.Fatal("TryRun reported in-flight on an idle scanner")
	}
	if !res.Success {
		t.Fatalf("cycle failed: %v", res.Err)
	}

	if res.NewCount() != 1 || res.NewRecords[0].Code != "A2" {
		t.Errorf("NewRecords = %+v, want exactly A2", res.NewRecords)
	}
	if res.SkippedRows != 1 {
		t.Errorf("SkippedRows = %d, want 1 (malformed A3)", res.SkippedRows)
	}
	if !notified.set.Has("A1") || !notified.set.Has("A2") || notified.set.Len() != 2 {
		t.Errorf("notified set = %v, want {A1 A2}", notified.set.Codes())
	}
	if len(archive.records) != 1 || archive.records[0].Code != "A2" {
		t.Errorf("archive = %+v, want [A2]", archive.records)
	}
	if len(notifier.batches) != 1 || len(notifier.batches[0]) != 1 || notifier.batches[0][0].Code != "A2" {
		t.Errorf("notified batches = %+v, want one batch [A2]", notifier.batches)
	}
	if !res.PersistOK || !res.NotifyOK {
		t.Errorf("PersistOK=%v NotifyOK=%v, want both true", res.PersistOK, res.NotifyOK)
	}
}

func TestTryRun_FetchTimeoutLeavesStoresUntouched(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: marker not visible", fetch.ErrTimeout)}
	archive := &memArchive{}
	notified := &memNotified{set: dedup.NewSet("A1")}
	notifier := &fakeNotifier{}

	s := scanner.New(fetcher, archive, notified, notifier, snapshot)
	res, ran := s.TryRun(context.Background())
	if !ran {
		t.Fatal("TryRun reported in-flight")
	}

	if res.Success {
		t.Error("cycle should fail on fetch timeout")
	}
	if !errors.Is(res.Err, fetch.ErrTimeout) {
		t.Errorf("Err = %v, want fetch.ErrTimeout", res.Err)
	}
	if res.NewCount() != 0 {
		t.Errorf("NewCount = %d, want 0", res.NewCount())
	}
	if notified.set.Len() != 1 || len(archive.records) != 0 {
		t.Error("stores mutated by a failed cycle")
	}
	if len(notifier.batches) != 0 {
		t.Error("notifier invoked on a failed cycle")
	}
}

func TestTryRun_ZeroNewStillNotifies(t *testing.T) {
	fetcher := &fakeFetcher{html: resultPage(resultRow("A1", "seen before"))}
	notified := &memNotified{set: dedup.NewSet("A1")}
	notifier := &fakeNotifier{}

	s := scanner.New(fetcher, &memArchive{}, notified, notifier, snapshot)
	res, _ := s.TryRun(context.Background())
	if !res.Success || res.NewCount() != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(notifier.batches) != 1 || len(notifier.batches[0]) != 0 {
		t.Errorf("notifier batches = %+v, want one empty batch", notifier.batches)
	}
}

func TestTryRun_PersistFailureDoesNotAbortNotify(t *testing.T) {
	fetcher := &fakeFetcher{html: resultPage(resultRow("A2", "new"))}
	archive := &memArchive{err: errors.New("disk full")}
	notified := &memNotified{set: dedup.NewSet(), saveErr: errors.New("disk full")}
	notifier := &fakeNotifier{}

	s := scanner.New(fetcher, archive, notified, notifier, snapshot)
	res, _ := s.TryRun(context.Background())

	if !res.Success {
		t.Errorf("persist failure should not fail the cycle: %v", res.Err)
	}
	if res.PersistOK {
		t.Error("PersistOK = true despite write failures")
	}
	if len(notifier.batches) != 1 {
		t.Error("notifier skipped after persist failure")
	}
	if !res.NotifyOK {
		t.Error("NotifyOK = false, want true")
	}
}

func TestTryRun_NotifyFailureIsNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{html: resultPage(resultRow("A2", "new"))}
	notifier := &fakeNotifier{err: errors.New("401 unauthorized")}
	notified := &memNotified{set: dedup.NewSet()}

	s := scanner.New(fetcher, &memArchive{}, notified, notifier, snapshot)
	res, _ := s.TryRun(context.Background())

	if !res.Success {
		t.Errorf("notify failure should not fail the cycle: %v", res.Err)
	}
	if res.NotifyOK {
		t.Error("NotifyOK = true despite dispatch failure")
	}
}

func TestTryRun_LoadFailureFailsCycle(t *testing.T) {
	fetcher := &fakeFetcher{html: resultPage(resultRow("A2", "new"))}
	notified := &memNotified{loadErr: errors.New("redis down")}
	notifier := &fakeNotifier{}

	s := scanner.New(fetcher, &memArchive{}, notified, notifier, snapshot)
	res, _ := s.TryRun(context.Background())
	if res.Success {
		t.Error("cycle should fail when the notified set cannot be loaded")
	}
	if fetcher.fetches.Load() != 0 {
		t.Error("fetch attempted despite unloadable notified set")
	}
	if len(notifier.batches) != 0 {
		t.Error("notifier invoked despite failed cycle")
	}
}

func TestTryRun_SecondTriggerDroppedWhileInFlight(t *testing.T) {
	block := make(chan struct{})
	fetcher := &fakeFetcher{html: resultPage(), block: block}
	notified := &memNotified{set: dedup.NewSet()}
	s := scanner.New(fetcher, &memArchive{}, notified, &fakeNotifier{}, snapshot)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.TryRun(context.Background())
	}()

	for !s.InFlight() {
		time.Sleep(time.Millisecond)
	}

	if _, ran := s.TryRun(context.Background()); ran {
		t.Error("second TryRun started a concurrent cycle")
	}
	if got := fetcher.fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}

	close(block)
	wg.Wait()

	// After completion the gate is free again.
	fetcher.block = nil
	if _, ran := s.TryRun(context.Background()); !ran {
		t.Error("TryRun after completion should run")
	}
}

func TestLastResult(t *testing.T) {
	s := scanner.New(&fakeFetcher{html: resultPage()}, &memArchive{}, &memNotified{set: dedup.NewSet()}, &fakeNotifier{}, snapshot)
	if _, ok := s.LastResult(); ok {
		t.Error("LastResult before any cycle should report none")
	}
	res, _ := s.TryRun(context.Background())
	got, ok := s.LastResult()
	if !ok || got.ID != res.ID {
		t.Errorf("LastResult = %+v ok=%v, want cycle %s", got, ok, res.ID)
	}
}
