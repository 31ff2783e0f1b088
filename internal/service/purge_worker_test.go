package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingPurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (p *recordingPurger) PurgeDeleted(_ context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return 3, p.err
}

func (p *recordingPurger) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func TestPurgeWorker_TickUsesRetention(t *testing.T) {
	p := &recordingPurger{}
	w := NewPurgeWorker(p, time.Hour, 48*time.Hour, zerolog.Nop())
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.tick(context.Background())

	if p.calls() != 1 {
		t.Fatalf("calls = %d, want 1", p.calls())
	}
	if want := now.Add(-48 * time.Hour); !p.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", p.cutoffs[0], want)
	}
}

func TestPurgeWorker_Defaults(t *testing.T) {
	w := NewPurgeWorker(&recordingPurger{}, 0, 0, zerolog.Nop())
	if w.interval != DefaultPurgeInterval || w.retention != DefaultTombstoneRetention {
		t.Errorf("interval/retention = %v/%v", w.interval, w.retention)
	}
}

func TestPurgeWorker_ErrorDoesNotStopLoop(t *testing.T) {
	p := &recordingPurger{err: errors.New("db down")}
	w := NewPurgeWorker(p, 10*time.Millisecond, time.Hour, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for p.calls() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	<-done

	if p.calls() < 3 {
		t.Errorf("calls = %d, want the loop to keep ticking after errors", p.calls())
	}
}

func TestPurgeWorker_StopsOnContext(t *testing.T) {
	w := NewPurgeWorker(&recordingPurger{}, time.Hour, time.Hour, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}
