package engine

import (
	"container/heap"
	"sync"
	"time"

	"go.uber.org/zap"
)

// timerEntry is one pending scheduled callback, ordered by its absolute
// expiration time with insertion order breaking ties (§4.6, §8).
type timerEntry struct {
	at       time.Time
	seq      uint64
	callback func()
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler is the single cooperative event loop (§4.6): a time-ordered
// timer heap plus a wake-up event queue, run on one dedicated goroutine.
// Exceptions from callbacks are logged and swallowed, matching §4.6/§7's
// "a single bad handler must not stop the loop."
type Scheduler struct {
	log *zap.SugaredLogger

	mu      sync.Mutex
	timers  timerHeap
	nextSeq uint64
	wake    chan func()
	stop    chan struct{}
}

// NewScheduler returns a scheduler; call Run in its own goroutine to start
// the loop.
func NewScheduler(log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		log:  log,
		wake: make(chan func(), 64),
		stop: make(chan struct{}),
	}
}

// Schedule inserts (now+delay, callback) into the heap (§4.6's
// `schedule(delay, event)`) and signals the wake-up queue so the loop
// recomputes its wait.
func (s *Scheduler) Schedule(delay time.Duration, callback func()) {
	s.mu.Lock()
	s.nextSeq++
	heap.Push(&s.timers, &timerEntry{at: time.Now().Add(delay), seq: s.nextSeq, callback: callback})
	s.mu.Unlock()
	select {
	case s.wake <- nil: // runSafely ignores a nil event
	default:
	}
}

// Post enqueues an immediate event for the loop to run at its next wake-up,
// e.g. a connection-arrival notification a built-in wants processed on the
// scheduler's thread instead of the caller's.
func (s *Scheduler) Post(event func()) {
	select {
	case s.wake <- event:
	default:
		s.log.Warnw("scheduler event queue full, dropping event")
	}
}

// Stop halts the loop after its current wait.
func (s *Scheduler) Stop() { close(s.stop) }

// Run is the loop step described in §4.6: wait for either a queued event or
// min(next timer - now, 1s); on wake, run the event if any, then drain every
// timer whose time has passed, each exactly once.
func (s *Scheduler) Run() {
	for {
		wait := s.nextWait()
		select {
		case <-s.stop:
			return
		case event := <-s.wake:
			s.runSafely(event)
		case <-time.After(wait):
		}
		s.drainTimers()
	}
}

func (s *Scheduler) nextWait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return time.Second
	}
	d := time.Until(s.timers[0].at)
	if d > time.Second {
		return time.Second
	}
	if d < 0 {
		return 0
	}
	return d
}

func (s *Scheduler) drainTimers() {
	now := time.Now()
	for {
		s.mu.Lock()
		if len(s.timers) == 0 || s.timers[0].at.After(now) {
			s.mu.Unlock()
			return
		}
		entry := heap.Pop(&s.timers).(*timerEntry)
		s.mu.Unlock()
		s.runSafely(entry.callback)
	}
}

func (s *Scheduler) runSafely(fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Warnw("scheduler callback panicked", "recovered", r)
		}
	}()
	fn()
}

// SessionRegistry maps online player ids to a send callback, the thinnest
// possible bridge the scripting/engine layer needs to reach a transport
// session without importing the session package (§1: transport is an
// external collaborator exposing a send(text) sink per session).
type SessionRegistry struct {
	mu      sync.RWMutex
	senders map[ID]func(string)
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{senders: map[ID]func(string){}}
}

// Register binds id to send, replacing any previous binding.
func (r *SessionRegistry) Register(id ID, send func(string)) {
	r.mu.Lock()
	r.senders[id] = send
	r.mu.Unlock()
}

// Unregister removes id's binding, if any.
func (r *SessionRegistry) Unregister(id ID) {
	r.mu.Lock()
	delete(r.senders, id)
	r.mu.Unlock()
}

// Get returns the send callback bound to id.
func (r *SessionRegistry) Get(id ID) (func(string), bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.senders[id]
	return fn, ok
}

// Broadcast sends text to every currently registered session.
func (r *SessionRegistry) Broadcast(text string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, send := range r.senders {
		send(text)
	}
}
