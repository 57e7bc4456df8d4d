package catalog

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"
)

// WarmerOptions tunes how aggressively pages are fetched ahead of need.
type WarmerOptions struct {
	ForwardWindow  int           // pages ahead of the current one to prewarm
	BackwardWindow int           // pages behind
	Spacing        time.Duration // base delay per page of distance
	FullWarmDelay  time.Duration // quiet period before the full walk starts
	FullWarmEvery  time.Duration // pacing between full-walk fetches
}

// Warmer fills the page cache ahead of navigation. PrewarmAround covers the
// neighborhood of the page a user just landed on; StartFullWarm walks an
// entire region once in the background so late pages are warm too.
type Warmer struct {
	cache *PageCache
	opts  WarmerOptions

	mu       sync.Mutex
	warming  map[cacheKey]struct{}
	fullWalk map[string]bool
}

func NewWarmer(cache *PageCache, opts WarmerOptions) *Warmer {
	if opts.Spacing <= 0 {
		opts.Spacing = 400 * time.Millisecond
	}
	if opts.FullWarmEvery <= 0 {
		opts.FullWarmEvery = 3 * time.Second
	}
	return &Warmer{
		cache:    cache,
		opts:     opts,
		warming:  make(map[cacheKey]struct{}),
		fullWalk: make(map[string]bool),
	}
}

// PrewarmAround schedules background fetches for the pages around pageIndex,
// forward neighbors first. Pages already cached or already being warmed are
// skipped. Returns immediately; fetches run on timers.
func (w *Warmer) PrewarmAround(region string, pageIndex, totalPages int) {
	for _, target := range warmTargets(pageIndex, totalPages, w.opts.ForwardWindow, w.opts.BackwardWindow) {
		w.schedule(region, pageIndex, target)
	}
}

// warmTargets lists the prewarm candidates around pageIndex: forward
// neighbors nearest-first, then backward, all within [0, totalPages).
func warmTargets(pageIndex, totalPages, forward, backward int) []int {
	var targets []int
	for d := 1; d <= forward; d++ {
		if t := pageIndex + d; t < totalPages {
			targets = append(targets, t)
		}
	}
	for d := 1; d <= backward; d++ {
		if t := pageIndex - d; t >= 0 {
			targets = append(targets, t)
		}
	}
	return targets
}

// schedule arms one delayed fetch for target, spaced by its distance from
// origin and jittered so a burst of clicks doesn't fire warm fetches in
// lockstep. The warming set holds the claim until the fetch settles.
func (w *Warmer) schedule(region string, origin, target int) {
	if w.cache.Contains(region, target) {
		return
	}

	key := cacheKey{Region: region, Page: target}
	w.mu.Lock()
	if _, claimed := w.warming[key]; claimed {
		w.mu.Unlock()
		return
	}
	w.warming[key] = struct{}{}
	w.mu.Unlock()

	distance := target - origin
	if distance < 0 {
		distance = -distance
	}

	time.AfterFunc(jittered(time.Duration(distance)*w.opts.Spacing), func() {
		defer func() {
			w.mu.Lock()
			delete(w.warming, key)
			w.mu.Unlock()
		}()
		// Navigation may have fetched it while the timer ran.
		if w.cache.Contains(region, target) {
			return
		}
		if _, err := w.cache.GetOrFetch(context.Background(), region, target); err != nil {
			log.Printf("warmer: prewarm %s page %d: %v", region, target, err)
		}
	})
}

// jittered spreads a delay by ±30%.
func jittered(d time.Duration) time.Duration {
	return time.Duration(float64(d) * (0.7 + 0.6*rand.Float64()))
}

// StartFullWarm launches the one-shot background walk over every page of a
// region. Calling it again while the walk runs, or after it completed, is a
// no-op; the guard is released only when the walk fails to seed, so a later
// cycle can retry.
func (w *Warmer) StartFullWarm(ctx context.Context, region string) {
	w.mu.Lock()
	if w.fullWalk[region] {
		w.mu.Unlock()
		return
	}
	w.fullWalk[region] = true
	w.mu.Unlock()

	go w.fullWalkLoop(ctx, region)
}

func (w *Warmer) fullWalkLoop(ctx context.Context, region string) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(w.opts.FullWarmDelay):
	}

	seed, err := w.cache.GetOrFetch(ctx, region, 0)
	if err != nil {
		log.Printf("warmer: full warm of %s aborted, seeding page 0 failed: %v", region, err)
		w.mu.Lock()
		delete(w.fullWalk, region)
		w.mu.Unlock()
		return
	}

	// The page count is read once from the seed; pages appearing mid-walk
	// are the next walk's problem.
	total := seed.TotalPages
	log.Printf("warmer: full warm of %s started, %d pages", region, total)

	ticker := time.NewTicker(w.opts.FullWarmEvery)
	defer ticker.Stop()

	for page := 1; page < total; page++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if w.cache.Contains(region, page) {
			continue
		}
		if _, err := w.cache.GetOrFetch(ctx, region, page); err != nil {
			log.Printf("warmer: full warm of %s page %d: %v", region, page, err)
		}
	}
	log.Printf("warmer: full warm of %s finished, %d pages", region, total)
}
