package sync

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/secretary/internal/store"
)

// Destination is the interface for an export target (S3, local file).
type Destination interface {
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic syncs to one or more destinations.
type Scheduler struct {
	store        store.IdentityStore
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// last holds the identity records of the last fully delivered export,
	// header excluded. Periodic runs skip when nothing changed.
	last []byte
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval.
func NewScheduler(s store.IdentityStore, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start exports immediately, then on each tick whenever a profile changed.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.syncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce(ctx)
		}
	}
}

func (s *Scheduler) syncOnce(ctx context.Context) {
	data, err := s.export(ctx)
	if err != nil {
		s.logger.Error("sync failed", "err", err)
		return
	}
	if s.last != nil && bytes.Equal(body(data), s.last) {
		s.logger.Debug("sync skipped, no profile changes")
		return
	}
	if err := s.deliver(ctx, data); err != nil {
		s.logger.Error("sync failed", "err", err)
	}
}

// RunOnce exports the store and writes the payload to every destination,
// changed or not. A failing destination does not stop the others; the first
// write error is returned after all have been tried.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	data, err := s.export(ctx)
	if err != nil {
		return err
	}
	return s.deliver(ctx, data)
}

func (s *Scheduler) export(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := ExportJSONL(ctx, s.store, &buf); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Scheduler) deliver(ctx context.Context, data []byte) error {
	var firstErr error
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("sync destination write failed", "destination", i, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr == nil {
		s.last = bytes.Clone(body(data))
	}
	s.logger.Info("sync completed", "destinations", len(s.destinations), "bytes", len(data))
	return firstErr
}

// body strips the header line, whose timestamp changes on every export.
func body(data []byte) []byte {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[i+1:]
	}
	return nil
}
