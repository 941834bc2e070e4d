package cache

import "time"

// Cleaner is implemented by caches that can evict expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs a periodic sweep over the registered caches.
type Manager struct {
	caches []Cleaner
	stop   chan struct{}
	done   chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

func (m *Manager) StartCleanup(interval time.Duration) {
	go m.loop(interval)
}

func (m *Manager) loop(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, c := range m.caches {
				c.CleanExpired()
			}
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}
