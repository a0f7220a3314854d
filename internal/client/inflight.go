package client

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when a request for the same record is still running.
var ErrInFlight = errors.New("client: request already in flight")

// InFlight allows one outstanding request per record id. The zero value is ready to use.
type InFlight struct {
	mu      sync.Mutex
	running map[int64]struct{}
}

// Acquire marks id busy. It returns a release func, or ErrInFlight when id
// is already busy.
func (f *InFlight) Acquire(id int64) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running == nil {
		f.running = make(map[int64]struct{})
	}
	if _, busy := f.running[id]; busy {
		return nil, ErrInFlight
	}
	f.running[id] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.running, id)
			f.mu.Unlock()
		})
	}, nil
}

// Busy reports whether id has an outstanding request.
func (f *InFlight) Busy(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.running[id]
	return busy
}

// Do runs fn unless a request for id is already running.
func (f *InFlight) Do(id int64, fn func() error) error {
	release, err := f.Acquire(id)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
