// Package daemon runs the background loops behind `rulehub daemon start`:
// watching the working rules directory to keep the index fresh, and syncing
// registered corpora on their cron schedules.
package daemon

import (
	"context"
	"log"
	"sync"

	"github.com/odyssey/rulehub/internal/database"
)

// Daemon runs background loops for rule indexing and corpus syncing.
type Daemon struct {
	db             *database.DB
	rulehubDirpath string
	logger         *log.Logger
}

// NewDaemon creates a new Daemon instance.
func NewDaemon(db *database.DB, rulehubDirpath string, logger *log.Logger) *Daemon {
	return &Daemon{
		db:             db,
		rulehubDirpath: rulehubDirpath,
		logger:         logger,
	}
}

// Run starts all daemon loops. Each loop runs in its own goroutine, and Run
// blocks until ctx is cancelled and all loops have returned.
func (d *Daemon) Run(ctx context.Context) {
	d.logger.Println("Daemon started")

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.runRulesWatcherLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.runSyncSchedulerLoop(ctx)
	}()

	wg.Wait()
	d.logger.Println("Daemon stopping")
}
