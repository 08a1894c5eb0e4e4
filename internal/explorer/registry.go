package explorer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

type session struct {
	ctrl     *Controller
	lastSeen time.Time
	watchers int
}

// Registry holds the live map sessions. Sessions idle for longer than ttl
// are dropped by Sweep.
type Registry struct {
	backend Backend
	opts    Options
	ttl     time.Duration
	publish func(sessionID string, v View)

	mu       sync.Mutex
	sessions map[string]*session
}

// NewRegistry creates sessions over backend. publish, if set, receives
// every view change of every session.
func NewRegistry(backend Backend, opts Options, ttl time.Duration, publish func(string, View)) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		backend:  backend,
		opts:     opts,
		ttl:      ttl,
		publish:  publish,
		sessions: map[string]*session{},
	}
}

// Create starts and loads a new session. A failed load still yields a
// usable, empty session.
func (r *Registry) Create(ctx context.Context) (string, *Controller) {
	id := uuid.NewString()
	opts := r.opts
	if r.publish != nil {
		opts.OnChange = func(v View) { r.publish(id, v) }
	}
	ctrl := New(r.backend, opts)

	r.mu.Lock()
	r.sessions[id] = &session{ctrl: ctrl, lastSeen: r.opts.Now()}
	r.mu.Unlock()

	if err := ctrl.Load(ctx); err != nil {
		log.Printf("session %s: %v", id, err)
	}
	return id, ctrl
}

func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.opts.Now()
	return s.ctrl, nil
}

// Attach marks the session as followed by a live connection until release
// is called. Followed sessions are never swept; release counts as activity.
func (r *Registry) Attach(id string) (ctrl *Controller, release func(), err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	s.watchers++
	s.lastSeen = r.opts.Now()

	var once sync.Once
	release = func() {
		once.Do(func() {
			r.mu.Lock()
			s.watchers--
			s.lastSeen = r.opts.Now()
			r.mu.Unlock()
		})
	}
	return s.ctrl, release, nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.ctrl.Wait()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops unwatched sessions idle since before now-ttl and returns how
// many.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var expired []*session
	for id, s := range r.sessions {
		if s.watchers == 0 && now.Sub(s.lastSeen) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.ctrl.Wait()
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := r.Sweep(now); n > 0 {
				log.Printf("expired %d idle sessions", n)
			}
		}
	}
}

// Drain waits for the write-throughs of every session.
func (r *Registry) Drain() {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.sessions))
	for _, s := range r.sessions {
		ctrls = append(ctrls, s.ctrl)
	}
	r.mu.Unlock()
	for _, c := range ctrls {
		c.Wait()
	}
}
