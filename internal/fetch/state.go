package fetch

import (
	"sync"
	"time"

	"github.com/xmflabs/xmf/internal/domain"
)

// stateMu guards the FetchProgress snapshot so Status reads never race
// with an in-flight walk's updates.
type stateMu struct {
	mu       sync.Mutex
	progress domain.FetchProgress
}

func (s *stateMu) lock()   { s.mu.Lock() }
func (s *stateMu) unlock() { s.mu.Unlock() }

func (s *stateMu) set(p domain.FetchProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p
}

func (s *stateMu) progressUpdate(inserted, pages int, oldest *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.FetchedCount = inserted
	s.progress.InsertedTotal = inserted
	s.progress.PagesFetched = pages
	s.progress.OldestSeen = oldest
}

func (s *stateMu) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.State = domain.FetchFailed
	s.progress.Reason = err.Error()
}

func (s *stateMu) succeed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.State = domain.FetchIdle
	s.progress.Reason = ""
}
