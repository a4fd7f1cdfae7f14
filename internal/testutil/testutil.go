// Package testutil provides shared test helpers for building stores and services.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/starford/stash/internal/stash"
	"github.com/starford/stash/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Clock returns a time source that advances one millisecond per call, so
// successive mutations get distinct timestamps.
func Clock() func() time.Time {
	var mu sync.Mutex
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

// TestStore returns a loaded store over an in-memory provider with the
// cheapest bcrypt cost.
func TestStore(t *testing.T, opts ...stash.Option) (*stash.Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	base := []stash.Option{
		stash.WithLogger(Logger()),
		stash.WithBcryptCost(bcrypt.MinCost),
		stash.WithClock(Clock()),
	}
	s := stash.New(mem, append(base, opts...)...)
	s.Load()
	return s, mem
}

// TestFSStore returns a loaded store persisted under a temp directory.
func TestFSStore(t *testing.T) (*stash.Store, string) {
	t.Helper()
	dir := t.TempDir()
	p, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	s := stash.New(p, stash.WithLogger(Logger()), stash.WithBcryptCost(bcrypt.MinCost))
	s.Load()
	return s, dir
}

// Suggester is a scripted tagging.Suggester.
type Suggester struct {
	mu    sync.Mutex
	Tags  []string
	Err   error
	Calls []string
}

func (f *Suggester) SuggestTags(_ context.Context, content string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, content)
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]string(nil), f.Tags...), nil
}
