package navigation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"dealboard-bot/models"
	"dealboard-bot/utils"
)

// errBoardBusy reports a message whose worker queue is full, which only
// happens while a click storm is in progress.
var errBoardBusy = errors.New("board worker queue full")

// PageProvider is the page source behind navigation. GetOrFetch may serve
// from cache; Refresh always goes upstream.
type PageProvider interface {
	GetOrFetch(ctx context.Context, region string, pageIndex int) (*models.Page, error)
	Refresh(ctx context.Context, region string, pageIndex int) (*models.Page, error)
}

// PageWarmer gets a hint after every committed flip.
type PageWarmer interface {
	PrewarmAround(region string, pageIndex, totalPages int)
}

// Options tune the navigation protocol.
type Options struct {
	Cooldown     time.Duration // per-message window after a commit
	UserCooldown time.Duration // per-user window after a commit
	StateTTL     time.Duration // idle time before a message state is swept
	FetchTimeout time.Duration // timeout for one page load
}

func (o Options) withDefaults() Options {
	if o.Cooldown <= 0 {
		o.Cooldown = 1500 * time.Millisecond
	}
	if o.UserCooldown <= 0 {
		o.UserCooldown = 3 * time.Second
	}
	if o.StateTTL <= 0 {
		o.StateTTL = 15 * time.Minute
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 2500 * time.Millisecond
	}
	return o
}

// Controller runs the pinned-board navigation protocol: admission of button
// clicks, per-message serialization of flips and re-renders, epoch-checked
// commits, and lifecycle of the board messages themselves.
type Controller struct {
	pages  PageProvider
	msgr   Messenger
	warmer PageWarmer
	opts   Options

	mu     sync.Mutex
	states map[string]*state

	stop     chan struct{}
	stopOnce sync.Once
}

func NewController(pages PageProvider, msgr Messenger, warmer PageWarmer, opts Options) *Controller {
	c := &Controller{
		pages:  pages,
		msgr:   msgr,
		warmer: warmer,
		opts:   opts.withDefaults(),
		states: make(map[string]*state),
		stop:   make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Close stops the state janitor. Message workers drain and exit as their
// states are retired or the process ends.
func (c *Controller) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// HandleClick is the component-interaction entry point. It validates the
// click against the message's navigation state and either queues the flip or
// answers ephemerally with the rejection reason. Never blocks on I/O beyond
// the interaction replies themselves.
func (c *Controller) HandleClick(ic Interaction) {
	region, pageIndex, clickEpoch, ok := ParseCustomID(ic.CustomID())
	if !ok {
		log.Printf("navigation: malformed component id %q on message %s", ic.CustomID(), ic.MessageID())
		c.reject(ic, "🚫 That button is not valid anymore.")
		return
	}

	now := time.Now()
	for {
		st := c.stateFor(ic.MessageID(), now)
		verdict := st.admit(pageIndex, clickEpoch, ic.UserID(), now)
		if verdict == admitRetry {
			// The janitor retired this state between lookup and admission.
			continue
		}

		switch verdict {
		case admitBusy:
			c.reject(ic, "⏳ Already updating to that page, hold on.")
		case admitStale:
			c.reject(ic, "🔄 The board moved on while you clicked. Try again.")
		case admitCooldown:
			c.reject(ic, "🐢 Slow down a little, then try again.")
		case admitOK:
			c.accept(ic, st, region, pageIndex, clickEpoch)
		}
		return
	}
}

func (c *Controller) reject(ic Interaction, text string) {
	if err := ic.RespondEphemeral(text); err != nil {
		log.Printf("navigation: reject reply on %s: %v", ic.MessageID(), err)
	}
}

// accept acknowledges within Discord's deadline and hands the flip to the
// message worker. clickEpoch+1 is already the state's epoch; the flip must
// find it unchanged after its fetch to commit.
func (c *Controller) accept(ic Interaction, st *state, region string, pageIndex int, clickEpoch int64) {
	if err := ic.Acknowledge(); err != nil {
		// The token often still accepts edits after a failed ack; let the
		// flip find out rather than dropping an accepted click.
		log.Printf("navigation: ack on %s: %v", ic.MessageID(), err)
	}

	committed := clickEpoch + 1
	task := func() {
		defer st.clearPending(pageIndex, clickEpoch)
		c.flip(ic, st, region, pageIndex, committed)
	}
	if !st.enqueue(pageIndex, clickEpoch, task) {
		log.Printf("navigation: task queue full on %s, dropping click", ic.MessageID())
		if err := ic.FollowupEphemeral("⏳ The board is busy right now, try again shortly."); err != nil {
			log.Printf("navigation: busy reply on %s: %v", ic.MessageID(), err)
		}
	}
}

// flip runs on the message worker: grey the buttons, load the page, and
// commit the new render only if no newer click was accepted meanwhile.
// Cooldowns start strictly after a successful commit, so a failed flip can
// be retried immediately.
func (c *Controller) flip(ic Interaction, st *state, region string, pageIndex int, committed int64) {
	if err := ic.DisableButtons(); err != nil {
		log.Printf("navigation: disable buttons on %s: %v", ic.MessageID(), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.FetchTimeout)
	page, err := c.pages.GetOrFetch(ctx, region, pageIndex)
	cancel()
	if err != nil {
		log.Printf("navigation: load for %s failed (%s): %v", ic.MessageID(), utils.BoardDetail(region, pageIndex, committed), err)
		c.fail(ic, st, "⚠️ Couldn't load that page. Please try again.")
		return
	}

	if !st.stillCurrent(committed) {
		// A newer accepted click owns the message now; its flip follows on
		// this same worker and will repaint the buttons.
		return
	}

	content := Render(region, pageIndex, page, committed)
	if err := c.msgr.Edit(ic.ChannelID(), ic.MessageID(), content); err != nil {
		log.Printf("navigation: commit on %s failed (%s): %v", ic.MessageID(), utils.BoardDetail(region, pageIndex, committed), err)
		c.fail(ic, st, "⚠️ Couldn't update the board. Please try again.")
		return
	}

	st.startCooldowns(ic.UserID(), time.Now(), c.opts.Cooldown, c.opts.UserCooldown)
	c.warmer.PrewarmAround(region, pageIndex, page.TotalPages)
}

// fail re-enables the board's buttons under the current epoch and tells the
// clicker what happened. The epoch is read fresh: if a newer click advanced
// it during our fetch, restored buttons must carry that epoch, not ours.
func (c *Controller) fail(ic Interaction, st *state, text string) {
	if err := ic.RestoreButtons(st.currentEpoch()); err != nil {
		log.Printf("navigation: restore buttons on %s: %v", ic.MessageID(), err)
	}
	if err := ic.FollowupEphemeral(text); err != nil {
		log.Printf("navigation: failure reply on %s: %v", ic.MessageID(), err)
	}
}

// CreateBoard renders page zero of a region into a channel. When messageID
// names a message that still exists the board is re-rendered onto it, else a
// fresh message is posted. Returns the id of the message carrying the board.
func (c *Controller) CreateBoard(ctx context.Context, channelID, messageID, region string) (string, error) {
	page, err := c.pages.GetOrFetch(ctx, region, 0)
	if err != nil {
		return "", fmt.Errorf("load %s page 0: %w", region, err)
	}

	if messageID != "" && c.msgr.Exists(channelID, messageID) {
		if err := c.renderOnWorker(channelID, messageID, region, page); err != nil {
			return "", fmt.Errorf("reclaim board message %s: %w", messageID, err)
		}
		c.warmer.PrewarmAround(region, 0, page.TotalPages)
		return messageID, nil
	}

	// A fresh message needs no state yet: the first click will adopt the
	// epoch embedded here.
	content := Render(region, 0, page, time.Now().Unix())
	id, err := c.msgr.Send(channelID, content)
	if err != nil {
		return "", fmt.Errorf("post board message: %w", err)
	}
	c.warmer.PrewarmAround(region, 0, page.TotalPages)
	return id, nil
}

// RefreshBoard pulls page zero fresh from upstream and re-renders the board
// with a bumped epoch, so every button rendered before the refresh answers
// stale from here on.
func (c *Controller) RefreshBoard(ctx context.Context, channelID, messageID, region string) error {
	page, err := c.pages.Refresh(ctx, region, 0)
	if err != nil {
		return fmt.Errorf("refresh %s page 0: %w", region, err)
	}

	if err := c.renderOnWorker(channelID, messageID, region, page); err != nil {
		return fmt.Errorf("rerender board message %s: %w", messageID, err)
	}
	c.warmer.PrewarmAround(region, 0, page.TotalPages)
	return nil
}

// renderOnWorker commits a full re-render of the board through the message
// worker and waits for it. Queueing behind any in-flight flip is what keeps
// the message consistent: were the edit done here directly, a flip between
// its epoch check and its commit could land last and leave the rendered
// buttons one epoch behind the state, dead to every further click. The
// epoch advances inside the queued task, so buttons rendered before it
// answer stale from the moment it runs.
func (c *Controller) renderOnWorker(channelID, messageID, region string, page *models.Page) error {
	done := make(chan error, 1)
	for {
		st := c.stateFor(messageID, time.Now())
		task := func() {
			content := Render(region, 0, page, st.seedForRender(time.Now().Unix()))
			done <- c.msgr.Edit(channelID, messageID, content)
		}
		switch st.enqueueRender(task) {
		case admitRetry:
			// The janitor retired this state between lookup and enqueue.
			continue
		case admitBusy:
			return errBoardBusy
		}
		return <-done
	}
}

func (c *Controller) stateFor(messageID string, now time.Time) *state {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states[messageID]
	if !ok {
		st = newState(now)
		c.states[messageID] = st
	}
	return st
}

// janitor sweeps idle message states. Losing a state is harmless: the next
// click re-seeds the epoch from its button id.
func (c *Controller) janitor() {
	ticker := time.NewTicker(c.opts.StateTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep(time.Now().Add(-c.opts.StateTTL))
		}
	}
}

func (c *Controller) sweep(cutoff time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, st := range c.states {
		if st.retire(cutoff) {
			delete(c.states, id)
		}
	}
}
