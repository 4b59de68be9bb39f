// Package scheduler holds the lease-locked periodic cycles: publishing due
// posts, executing due engagement actions and collecting post metrics. Each
// cycle runs single-threaded inside a process; the row-based lease lock is
// what keeps multiple app instances from running the same cycle at once.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
)

// Registry owns the named periodic cycles of one process. It replaces a
// module-level timer map so tests can run isolated instances; a name can
// only be started once until stopped.
type Registry struct {
	mu      sync.Mutex
	running map[string]*cron.Cron
}

func NewRegistry() *Registry {
	return &Registry{running: make(map[string]*cron.Cron)}
}

// Start begins ticking fn every interval under the given name. Returns
// false when a cycle with this name is already running.
func (r *Registry) Start(name string, interval time.Duration, fn func()) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.running[name]; ok {
		return false, nil
	}

	c := cron.New()
	if err := c.AddFunc(fmt.Sprintf("@every %s", interval), fn); err != nil {
		return false, err
	}
	c.Start()
	r.running[name] = c
	return true, nil
}

// Stop cancels the named cycle. Returns false when it was not running.
func (r *Registry) Stop(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.running[name]
	if !ok {
		return false
	}
	c.Stop()
	delete(r.running, name)
	return true
}

func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, c := range r.running {
		c.Stop()
		delete(r.running, name)
	}
}

func (r *Registry) Running() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.running))
	for name := range r.running {
		names = append(names, name)
	}
	return names
}
