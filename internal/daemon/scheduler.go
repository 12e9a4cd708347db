package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/odyssey/rulehub/internal/config"
	"github.com/odyssey/rulehub/internal/corpus"
	"github.com/odyssey/rulehub/internal/database"
)

const (
	syncSchedulerInterval = 60 * time.Second
)

// syncRunner performs one corpus sync. Swappable in tests.
type syncRunner func(corpusName string, gitURL string) error

// SyncScheduler fires corpus syncs when their cron schedules come due.
type SyncScheduler struct {
	rulehubDirpath string
	runSync        syncRunner

	mu          sync.Mutex
	syncing     map[string]bool      // corpusName -> sync in progress
	lastFiredAt map[string]time.Time // corpusName -> minute of last fire
}

// NewSyncScheduler creates a scheduler that syncs corpora through the given
// database.
func NewSyncScheduler(rulehubDirpath string, db *database.DB) *SyncScheduler {
	s := &SyncScheduler{
		rulehubDirpath: rulehubDirpath,
		syncing:        make(map[string]bool),
		lastFiredAt:    make(map[string]time.Time),
	}
	s.runSync = func(corpusName string, gitURL string) error {
		_, err := corpus.Sync(rulehubDirpath, corpusName, gitURL, db)
		return err
	}
	return s
}

// runSyncSchedulerLoop is the scheduler goroutine. It runs every 60 seconds,
// checking each enabled corpus's schedule and syncing the due ones.
func (d *Daemon) runSyncSchedulerLoop(ctx context.Context) {
	scheduler := NewSyncScheduler(d.rulehubDirpath, d.db)

	// Run immediately on startup, then every 60 seconds
	scheduler.runSchedulerCycle(ctx, time.Now(), d.logger)

	ticker := time.NewTicker(syncSchedulerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scheduler.runSchedulerCycle(ctx, time.Now(), d.logger)
		}
	}
}

// runSchedulerCycle fires a sync for each enabled corpus whose schedule is due
// at the given time. Syncs run in their own goroutines; a corpus whose
// previous sync is still in flight is skipped rather than synced concurrently.
func (s *SyncScheduler) runSchedulerCycle(ctx context.Context, now time.Time, logger logger) {
	cfg, _, err := config.ReadRulehubConfig(s.rulehubDirpath)
	if err != nil {
		logger.Printf("Sync scheduler: failed to read config: %v", err)
		return
	}

	for _, name := range cfg.GetEnabledCorpora() {
		if ctx.Err() != nil {
			return
		}

		cc, _ := cfg.GetCorpusConfig(name)
		if !config.IsSyncDue(cc.GetSyncSchedule(), now) {
			continue
		}

		// Double-fire guard: the 60s tick can land twice in one cron minute
		if s.wasFiredThisMinute(name, now) {
			continue
		}

		s.mu.Lock()
		if s.syncing[name] {
			s.mu.Unlock()
			logger.Printf("Sync scheduler: skipping '%s' - previous sync still in progress", name)
			continue
		}
		s.syncing[name] = true
		s.lastFiredAt[name] = now
		s.mu.Unlock()

		go func(corpusName string, gitURL string) {
			defer func() {
				s.mu.Lock()
				delete(s.syncing, corpusName)
				s.mu.Unlock()
			}()

			logger.Printf("Sync scheduler: syncing corpus '%s'", corpusName)
			if err := s.runSync(corpusName, gitURL); err != nil {
				logger.Printf("Sync scheduler: failed to sync corpus '%s': %v", corpusName, err)
				return
			}
			logger.Printf("Sync scheduler: corpus '%s' synced", corpusName)
		}(name, cc.Git)
	}
}

// wasFiredThisMinute checks if a sync was already fired for this corpus in the
// current minute.
func (s *SyncScheduler) wasFiredThisMinute(corpusName string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	firedAt, ok := s.lastFiredAt[corpusName]
	if !ok {
		return false
	}
	return firedAt.Truncate(time.Minute).Equal(now.Truncate(time.Minute))
}

// logger is a minimal interface for logging that's compatible with log.Logger.
type logger interface {
	Printf(format string, v ...any)
}
