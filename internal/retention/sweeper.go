package retention

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper removes files older than MaxAge from the watched directories.
// It covers uploads orphaned by a crash and expired output artifacts;
// the job log itself is never touched.
type Sweeper struct {
	dirs   []string
	maxAge time.Duration
	cron   *cron.Cron
	now    func() time.Time
}

func NewSweeper(maxAge time.Duration, dirs ...string) *Sweeper {
	return &Sweeper{
		dirs:   dirs,
		maxAge: maxAge,
		cron:   cron.New(),
		now:    time.Now,
	}
}

// Start runs one sweep immediately and then every hour.
func (s *Sweeper) Start() {
	s.Sweep()
	s.cron.AddFunc("@every 1h", s.Sweep)
	s.cron.Start()
}

// Stop halts the schedule; an in-flight sweep finishes.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep deletes every regular file under the watched directories whose
// modification time is older than MaxAge.
func (s *Sweeper) Sweep() {
	cutoff := s.now().Add(-s.maxAge)
	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Printf("[retention] cannot read %s: %v", dir, err)
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("[retention] failed to remove %s: %v", path, err)
				continue
			}
			log.Printf("[retention] removed stale file %s", path)
		}
	}
}
