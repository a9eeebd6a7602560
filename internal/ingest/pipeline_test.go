package ingest

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylist/internal/domain"
)

func runPipeline(t *testing.T, remote *fakeRemote, src Source) (Result, []domain.Stage) {
	t.Helper()
	var seen []domain.Stage
	res := NewPipeline(remote, nil).Run(context.Background(), src, func(s domain.Stage, err error) {
		seen = append(seen, s)
	})
	return res, seen
}

func TestPipelineCompletesInOrder(t *testing.T) {
	remote := newFakeRemote()
	res, seen := runPipeline(t, remote, BytesSource("tee.jpg", []byte("img")))

	require.True(t, res.OK())
	assert.NoError(t, res.Err)
	assert.Equal(t, []domain.Stage{
		domain.StageAnalyzing, domain.StagePersistingRecord, domain.StagePersistingIndex, domain.StageComplete,
	}, seen)
	assert.Equal(t, "rec-1", res.Item.ID)
	assert.Equal(t, "/store/tee.jpg", res.Item.ImagePath)
	assert.Equal(t, "shirt", res.Item.Category())
	assert.Equal(t, []string{"upload", "analyze", "record", "index"}, remote.callsFor("tee.jpg"))
}

func TestPipelineStopsAtFailingStage(t *testing.T) {
	order := []string{"upload", "analyze", "record", "index"}
	wantStages := map[string][]domain.Stage{
		"upload":  {domain.StageError},
		"analyze": {domain.StageAnalyzing, domain.StageError},
		"record":  {domain.StageAnalyzing, domain.StagePersistingRecord, domain.StageError},
		"index":   {domain.StageAnalyzing, domain.StagePersistingRecord, domain.StagePersistingIndex, domain.StageError},
	}
	for i, op := range order {
		t.Run(op, func(t *testing.T) {
			remote := newFakeRemote()
			remote.failAt["x.jpg"] = op
			res, seen := runPipeline(t, remote, BytesSource("x.jpg", []byte("img")))

			assert.Equal(t, domain.StageError, res.Stage)
			require.Error(t, res.Err)
			assert.Contains(t, res.Err.Error(), op+" failed")
			assert.Empty(t, res.Item.ID)
			assert.Equal(t, wantStages[op], seen)
			assert.Equal(t, order[:i+1], remote.callsFor("x.jpg"))
		})
	}
}

func TestPipelineOpenErrorFailsUpload(t *testing.T) {
	remote := newFakeRemote()
	src := Source{Name: "gone.jpg", Open: func() (io.ReadCloser, error) { return nil, errors.New("permission denied") }}
	res, seen := runPipeline(t, remote, src)

	assert.Equal(t, domain.StageError, res.Stage)
	assert.Contains(t, res.Err.Error(), "permission denied")
	assert.Equal(t, []domain.Stage{domain.StageError}, seen)
	assert.Empty(t, remote.snapshotCalls())
}
