package ssokit

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ExpiringStore is any store the sweeper can evict expired entries from.
type ExpiringStore interface {
	DeleteExpired()
}

// Sweeper periodically evicts expired records from its stores. It is
// advisory housekeeping against unbounded memory growth; the stores check
// expiry defensively at read time regardless. The sweeper runs independent
// of request flow and is started and stopped explicitly by the process
// lifecycle.
type Sweeper struct {
	interval time.Duration
	stores   []ExpiringStore
	done     chan struct{}
	stopOnce sync.Once
}

// NewSweeper creates a sweeper over the given stores.
func NewSweeper(interval time.Duration, stores ...ExpiringStore) *Sweeper {
	return &Sweeper{
		interval: interval,
		stores:   stores,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (s *Sweeper) Start() {
	go s.loop()
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *Sweeper) sweep() {
	for _, store := range s.stores {
		store.DeleteExpired()
	}

	log.Debug().Msg("expiry sweep completed")
}

// Stop terminates the sweep loop. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}
