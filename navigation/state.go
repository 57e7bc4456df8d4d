package navigation

import (
	"strconv"
	"sync"
	"time"
)

// taskQueueDepth bounds how many accepted flips can wait on one message.
// Cooldowns keep the realistic depth at one or two; the headroom only
// matters if cooldowns are configured away.
const taskQueueDepth = 16

// admission is the verdict on one click.
type admission int

const (
	admitOK       admission = iota
	admitRetry              // state was retired underneath us, look it up again
	admitBusy               // identical (page, epoch) already in flight
	admitStale              // click's epoch lost to a newer accepted click
	admitCooldown           // message or user still in a cooldown window
)

// state is the navigation bookkeeping for one board message. epoch mirrors
// the epoch embedded in the message's currently rendered buttons; known is
// false until the first click (or render) seeds it. One worker goroutine
// drains tasks so flips on the same message never interleave.
type state struct {
	mu    sync.Mutex
	epoch int64
	known bool

	cooldownUntil time.Time
	perUser       map[string]time.Time
	pending       map[string]struct{}

	lastUsed time.Time
	dead     bool

	tasks chan func()
	quit  chan struct{}
}

func newState(now time.Time) *state {
	s := &state{
		perUser:  make(map[string]time.Time),
		pending:  make(map[string]struct{}),
		lastUsed: now,
		tasks:    make(chan func(), taskQueueDepth),
		quit:     make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *state) run() {
	for {
		select {
		case task := <-s.tasks:
			task()
		case <-s.quit:
			return
		}
	}
}

func pendingKey(pageIndex int, epoch int64) string {
	return strconv.Itoa(pageIndex) + ":" + strconv.FormatInt(epoch, 10)
}

// admit decides one click's fate. Order matters: a duplicate of an in-flight
// click must answer busy, not stale, so the pending check runs before the
// epoch comparison. On admitOK the pending key is registered and the epoch
// advanced to clickEpoch+1 before returning, which is what makes every
// concurrent sibling of this click lose.
func (s *state) admit(pageIndex int, clickEpoch int64, userID string, now time.Time) admission {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dead {
		return admitRetry
	}
	s.lastUsed = now

	// A fresh state trusts the clicked epoch: it was embedded in the last
	// render this process or a predecessor committed.
	if !s.known {
		s.epoch = clickEpoch
		s.known = true
	}

	if _, dup := s.pending[pendingKey(pageIndex, clickEpoch)]; dup {
		return admitBusy
	}
	if clickEpoch != s.epoch {
		return admitStale
	}
	if now.Before(s.cooldownUntil) {
		return admitCooldown
	}
	if until, ok := s.perUser[userID]; ok && now.Before(until) {
		return admitCooldown
	}

	s.pending[pendingKey(pageIndex, clickEpoch)] = struct{}{}
	s.epoch = clickEpoch + 1
	return admitOK
}

// enqueue hands an accepted flip to the message worker. A full queue drops
// the claim and rolls the epoch back so the rendered buttons stay valid,
// then reports false so the caller can answer busy.
func (s *state) enqueue(pageIndex int, clickEpoch int64, task func()) bool {
	select {
	case s.tasks <- task:
		return true
	default:
	}

	s.mu.Lock()
	delete(s.pending, pendingKey(pageIndex, clickEpoch))
	if s.epoch == clickEpoch+1 {
		s.epoch = clickEpoch
	}
	s.mu.Unlock()
	return false
}

// enqueueRender hands a board re-render to the message worker, where it
// runs behind any in-flight flip, so the last edit on the message always
// carries the newest epoch. The epoch advances inside the queued task, so a
// full queue needs no rollback, only the busy verdict.
func (s *state) enqueueRender(task func()) admission {
	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		return admitRetry
	}
	s.lastUsed = time.Now()
	s.mu.Unlock()

	select {
	case s.tasks <- task:
		return admitOK
	default:
		return admitBusy
	}
}

// stillCurrent reports whether epoch is the latest accepted one. A flip
// checks this after its fetch and discards its result when a newer click
// overtook it.
func (s *state) stillCurrent(epoch int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch == epoch
}

func (s *state) currentEpoch() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *state) clearPending(pageIndex int, clickEpoch int64) {
	s.mu.Lock()
	delete(s.pending, pendingKey(pageIndex, clickEpoch))
	s.mu.Unlock()
}

// startCooldowns opens the post-commit cooldown windows and prunes per-user
// entries that have already lapsed so the map tracks active users only.
func (s *state) startCooldowns(userID string, now time.Time, global, perUser time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cooldownUntil = now.Add(global)
	for id, until := range s.perUser {
		if now.After(until) {
			delete(s.perUser, id)
		}
	}
	s.perUser[userID] = now.Add(perUser)
}

// seedForRender yields the epoch for a board (re)render outside the click
// path: the next epoch when the message is already tracked, otherwise the
// supplied seed. Either way every previously rendered button goes stale.
func (s *state) seedForRender(seed int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.known {
		s.epoch++
	} else {
		s.epoch = seed
		s.known = true
	}
	s.lastUsed = time.Now()
	return s.epoch
}

// retire marks the state dead and stops its worker, but only when it is
// quiescent: nothing pending, nothing queued, no activity since cutoff.
// Admission re-checks the dead flag under this same lock, so a click racing
// the sweep retries against a fresh state instead of landing on a corpse.
func (s *state) retire(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) > 0 || len(s.tasks) > 0 || s.lastUsed.After(cutoff) {
		return false
	}
	s.dead = true
	close(s.quit)
	return true
}
