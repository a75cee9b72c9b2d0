package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"dataforge/internal/workflow"
)

type fakeEngine struct {
	mu      sync.Mutex
	uploads []string
}

func (f *fakeEngine) ProcessFileUpload(_ context.Context, _, filename, _ string) (*workflow.ExecutionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename)
	return &workflow.ExecutionResult{Summary: "ok"}, nil
}

func (f *fakeEngine) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func TestWatcherIngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeEngine{}
	done := make(chan string, 1)

	w := New(dir, "clean this file", 50*time.Millisecond, engine, func(filename string, _ *workflow.ExecutionResult, err error) {
		if err != nil {
			t.Errorf("ingestion error: %v", err)
		}
		done <- filename
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the watcher a moment to arm before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "new.csv"), []byte("a,b\n1,2"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case filename := <-done:
		if filename != "new.csv" {
			t.Errorf("unexpected filename: %q", filename)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for ingestion")
	}
}

func TestWatcherIgnoresNonIngestibleFiles(t *testing.T) {
	dir := t.TempDir()
	engine := &fakeEngine{}

	w := New(dir, "process", 30*time.Millisecond, engine, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89}, 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if engine.count() != 0 {
		t.Errorf("non-ingestible file was processed %d times", engine.count())
	}
}

func TestIsIngestible(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"data.csv", true},
		{"notes.TXT", true},
		{"report.json", true},
		{"photo.png", false},
		{"archive.zip", false},
	}
	for _, tt := range tests {
		if got := isIngestible(tt.path); got != tt.want {
			t.Errorf("isIngestible(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
