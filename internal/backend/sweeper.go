package backend

import (
	"context"
	"time"

	"github.com/petermazzocco/snapgram/internal/log"
)

const sweepBatch = 100

// Sweeper retries deletes of files recorded in the orphan ledger.
type Sweeper struct {
	orphans OrphanStore
	files   FileStorage
}

func NewSweeper(orphans OrphanStore, files FileStorage) *Sweeper {
	return &Sweeper{orphans: orphans, files: files}
}

// SweepOnce makes one delete attempt per ledger entry in a batch and
// returns how many files were reclaimed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	orphans, err := s.orphans.ListOrphans(ctx, sweepBatch)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, o := range orphans {
		if err := ctx.Err(); err != nil {
			return reclaimed, err
		}
		if err := s.files.Delete(ctx, o.FileID); err != nil {
			log.Warn.Printf("sweep: delete file %s (attempt %d): %v", o.FileID, o.Attempts+1, err)
			if err := s.orphans.MarkOrphanAttempt(ctx, o.ID); err != nil {
				log.Error.Printf("sweep: mark attempt on %s: %v", o.ID, err)
			}
			continue
		}
		if err := s.orphans.DeleteOrphan(ctx, o.ID); err != nil {
			log.Error.Printf("sweep: drop ledger entry %s: %v", o.ID, err)
			continue
		}
		reclaimed++
	}
	return reclaimed, nil
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.Warn.Printf("sweep: disabled, interval %s", interval)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil && ctx.Err() == nil {
				log.Error.Printf("sweep: %v", err)
			}
			if n > 0 {
				log.Info.Printf("sweep: reclaimed %d orphaned files", n)
			}
		}
	}
}
