package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylist/internal/domain"
	"stylist/internal/wardrobe"
)

type recorder struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recorder) record(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recorder) list() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

func (r *recorder) stages(index int) []domain.Stage {
	var out []domain.Stage
	for _, u := range r.list() {
		if u.Kind == UpdateEntry && u.Index == index {
			out = append(out, u.Entry.Stage)
		}
	}
	return out
}

func (r *recorder) count(kind UpdateKind) int {
	n := 0
	for _, u := range r.list() {
		if u.Kind == kind {
			n++
		}
	}
	return n
}

func sources(n int) []Source {
	out := make([]Source, n)
	for i := range out {
		out[i] = BytesSource(fmt.Sprintf("f%d.jpg", i), []byte("img"))
	}
	return out
}

func newTestController(remote *fakeRemote, opts ...ControllerOption) (*Controller, *wardrobe.Store, *recorder) {
	store := wardrobe.NewStore()
	opts = append([]ControllerOption{WithItemSink(store), WithGracePeriod(time.Hour)}, opts...)
	c := NewController(NewPipeline(remote, nil), opts...)
	rec := &recorder{}
	c.Subscribe(rec.record)
	return c, store, rec
}

var fullOrder = []domain.Stage{
	domain.StageUploading, domain.StageAnalyzing, domain.StagePersistingRecord, domain.StagePersistingIndex, domain.StageComplete,
}

// assertStagePrefix checks the seen stages are a prefix of the forward order,
// optionally ending in Error.
func assertStagePrefix(t *testing.T, seen []domain.Stage) {
	t.Helper()
	require.NotEmpty(t, seen)
	body := seen
	if seen[len(seen)-1] == domain.StageError {
		body = seen[:len(seen)-1]
	}
	require.LessOrEqual(t, len(body), len(fullOrder))
	assert.Equal(t, fullOrder[:len(body)], body)
}

func TestSubmitEmptyBatchIsNoop(t *testing.T) {
	c, _, rec := newTestController(newFakeRemote())
	summary, err := c.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchSummary{}, summary)
	assert.Empty(t, rec.list())
	assert.Equal(t, Snapshot{}, c.Snapshot())
}

func TestSubmitIsolatesFailures(t *testing.T) {
	remote := newFakeRemote()
	remote.failAt["f1.jpg"] = "analyze"
	remote.failAt["f3.jpg"] = "index"
	remote.failAt["f4.jpg"] = "upload"
	c, store, rec := newTestController(remote)

	summary, err := c.Submit(context.Background(), sources(6))
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 3, summary.Failed())
	assert.Equal(t, domain.BatchPartial, summary.Outcome())

	snap := c.Snapshot()
	assert.False(t, snap.Processing)
	require.Len(t, snap.Entries, 6)
	for i, e := range snap.Entries {
		assert.Equal(t, fmt.Sprintf("f%d.jpg", i), e.Name)
		if i == 1 || i == 3 || i == 4 {
			assert.Equal(t, domain.StageError, e.Stage)
			assert.NotEmpty(t, e.Error)
		} else {
			assert.Equal(t, domain.StageComplete, e.Stage)
			assert.Empty(t, e.Error)
		}
		assertStagePrefix(t, rec.stages(i))
	}

	items := store.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "/store/f5.jpg", items[0].ImagePath)
	assert.Equal(t, "/store/f0.jpg", items[2].ImagePath)
	assert.Equal(t, 1, rec.count(UpdateFinished))
	assert.Equal(t, 3, rec.count(UpdateItemAdded))
}

func TestSubmitAllFailed(t *testing.T) {
	remote := newFakeRemote()
	remote.failAt["f0.jpg"] = "upload"
	remote.failAt["f1.jpg"] = "record"
	c, store, _ := newTestController(remote)

	summary, err := c.Submit(context.Background(), sources(2))
	require.NoError(t, err)
	assert.Equal(t, domain.BatchAllFailed, summary.Outcome())
	assert.Zero(t, store.Len())
}

func TestSubmitRunsFilesSequentially(t *testing.T) {
	remote := newFakeRemote()
	remote.delay = 2 * time.Millisecond
	remote.failAt["f2.jpg"] = "record"
	c, _, _ := newTestController(remote)

	_, err := c.Submit(context.Background(), sources(4))
	require.NoError(t, err)

	calls := remote.snapshotCalls()
	require.NotEmpty(t, calls)
	for i := 1; i < len(calls); i++ {
		prev, cur := calls[i-1], calls[i]
		assert.False(t, cur.start.Before(prev.end), "call %s/%s started before %s/%s ended", cur.file, cur.op, prev.file, prev.op)
	}
	lastFile := ""
	finished := map[string]bool{}
	for _, cl := range calls {
		if cl.file != lastFile {
			assert.False(t, finished[cl.file], "file %s resumed after another file started", cl.file)
			if lastFile != "" {
				finished[lastFile] = true
			}
			lastFile = cl.file
		}
	}
}

func TestSubmitRejectsOverlappingBatch(t *testing.T) {
	remote := newFakeRemote()
	remote.gate = make(chan struct{})
	c, _, _ := newTestController(remote)

	done := make(chan domain.BatchSummary)
	go func() {
		s, _ := c.Submit(context.Background(), sources(1))
		done <- s
	}()
	require.Eventually(t, c.Processing, time.Second, time.Millisecond)

	_, err := c.Submit(context.Background(), sources(2))
	assert.ErrorIs(t, err, ErrBatchInProgress)

	close(remote.gate)
	summary := <-done
	assert.Equal(t, 1, summary.Succeeded)
	assert.False(t, c.Processing())
}

func TestEntriesClearedAfterGracePeriod(t *testing.T) {
	c, _, rec := newTestController(newFakeRemote(), WithGracePeriod(20*time.Millisecond))

	_, err := c.Submit(context.Background(), sources(2))
	require.NoError(t, err)
	assert.Len(t, c.Snapshot().Entries, 2)

	require.Eventually(t, func() bool { return len(c.Snapshot().Entries) == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rec.count(UpdateCleared))
}

func TestNewBatchCancelsPendingClear(t *testing.T) {
	remote := newFakeRemote()
	c, _, _ := newTestController(remote, WithGracePeriod(30*time.Millisecond))

	_, err := c.Submit(context.Background(), sources(1))
	require.NoError(t, err)
	second := []Source{BytesSource("next.jpg", []byte("img"))}
	_, err = c.Submit(context.Background(), second)
	require.NoError(t, err)

	snap := c.Snapshot()
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "next.jpg", snap.Entries[0].Name)
	require.Eventually(t, func() bool { return len(c.Snapshot().Entries) == 0 }, time.Second, 5*time.Millisecond)
}

func TestPanickingFileDoesNotStopBatch(t *testing.T) {
	remote := newFakeRemote()
	remote.panicAt["f0.jpg"] = "analyze"
	c, store, _ := newTestController(remote)

	summary, err := c.Submit(context.Background(), sources(2))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, domain.StageError, c.Snapshot().Entries[0].Stage)
	assert.Contains(t, c.Snapshot().Entries[0].Error, "remote exploded")
	assert.Equal(t, 1, store.Len())
}

func TestUnsubscribeStopsUpdates(t *testing.T) {
	c := NewController(NewPipeline(newFakeRemote(), nil), WithGracePeriod(time.Hour))
	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.record)
	unsubscribe()
	_, err := c.Submit(context.Background(), sources(1))
	require.NoError(t, err)
	assert.Empty(t, rec.list())
}
