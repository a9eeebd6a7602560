package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"stylist/internal/domain"
	"stylist/internal/stylistapi"
)

type call struct {
	op    string
	file  string
	start time.Time
	end   time.Time
}

// fakeRemote answers every call successfully unless failAt names the op
// that should fail for a file. Files are tracked by the stored path, which
// is "/store/<name>".
type fakeRemote struct {
	mu      sync.Mutex
	calls   []call
	failAt  map[string]string
	panicAt map[string]string
	delay   time.Duration
	gate    chan struct{}
	nextID  int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{failAt: map[string]string{}, panicAt: map[string]string{}}
}

func (f *fakeRemote) do(op, file string) error {
	start := time.Now()
	if f.gate != nil {
		<-f.gate
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, call{op: op, file: file, start: start, end: time.Now()})
	failOp, panicOp := f.failAt[file], f.panicAt[file]
	f.mu.Unlock()
	if panicOp == op {
		panic("remote exploded")
	}
	if failOp == op {
		return &stylistapi.Failure{Op: op, Status: 500, Message: op + " failed for " + file}
	}
	return nil
}

func (f *fakeRemote) callsFor(file string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ops []string
	for _, c := range f.calls {
		if c.file == file {
			ops = append(ops, c.op)
		}
	}
	return ops
}

func (f *fakeRemote) snapshotCalls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func fileOf(path string) string { return strings.TrimPrefix(path, "/store/") }

func (f *fakeRemote) Upload(ctx context.Context, filename string, content io.Reader) (stylistapi.UploadResult, error) {
	if _, err := io.ReadAll(content); err != nil {
		return stylistapi.UploadResult{}, err
	}
	if err := f.do("upload", filename); err != nil {
		return stylistapi.UploadResult{}, err
	}
	return stylistapi.UploadResult{Filename: filename, FilePath: "/store/" + filename}, nil
}

func (f *fakeRemote) Analyze(ctx context.Context, imagePath string) (domain.ClothingItem, error) {
	if err := f.do("analyze", fileOf(imagePath)); err != nil {
		return domain.ClothingItem{}, err
	}
	return domain.ClothingItem{
		ImagePath:  imagePath,
		Attributes: map[string]any{"category": "shirt", "color": "white", "description": "plain tee"},
	}, nil
}

func (f *fakeRemote) CreateRecord(ctx context.Context, item domain.ClothingItem) (stylistapi.RecordRef, error) {
	if err := f.do("record", fileOf(item.ImagePath)); err != nil {
		return stylistapi.RecordRef{}, err
	}
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("rec-%d", f.nextID)
	f.mu.Unlock()
	return stylistapi.RecordRef{ItemID: id, ImagePath: item.ImagePath}, nil
}

func (f *fakeRemote) CreateIndexEntry(ctx context.Context, imagePath, description string) (stylistapi.IndexRef, error) {
	if description == "" {
		return stylistapi.IndexRef{}, errors.New("description missing")
	}
	if err := f.do("index", fileOf(imagePath)); err != nil {
		return stylistapi.IndexRef{}, err
	}
	return stylistapi.IndexRef{ItemID: "vec"}, nil
}
