package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor 定时清理过期结果
type Janitor struct {
	store *Store
	ttl   time.Duration
	cron  *cron.Cron
	now   func() time.Time
}

func NewJanitor(store *Store, spec string, ttl time.Duration) (*Janitor, error) {
	j := &Janitor{
		store: store,
		ttl:   ttl,
		cron:  cron.New(),
		now:   time.Now,
	}
	if _, err := j.cron.AddFunc(spec, j.Sweep); err != nil {
		return nil, fmt.Errorf("add cleanup job %q: %w", spec, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop 等待正在执行的清理结束
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) Sweep() {
	removed, err := j.store.Purge(j.now().Add(-j.ttl))
	if err != nil {
		slog.Error("purge results", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("purged expired results", "count", removed, "ttl", j.ttl)
	}
}
