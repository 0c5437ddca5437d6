package service

import "sync"

// StoreLock serialises writes that span the teacher and rating stores: a vote
// checks that its teacher exists and appends under the same lock a teacher
// delete takes, so no rating can outlive its teacher. Reads never take it.
type StoreLock struct {
	mu sync.Mutex
}

// NewStoreLock returns a lock to share between TeacherService and RatingService.
func NewStoreLock() *StoreLock {
	return &StoreLock{}
}

func (l *StoreLock) lock() func() {
	l.mu.Lock()
	return l.mu.Unlock
}
