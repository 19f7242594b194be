package match

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mssb/matchmaker/internal/queue"
	"github.com/mssb/matchmaker/pkg/types"
)

type fakeOracle struct {
	ratings     map[string]int
	populations map[types.Mode][]int
	err         error
}

func (o *fakeOracle) LastRating(_ context.Context, playerID string, _ types.Mode) (int, error) {
	if o.err != nil {
		return 1400, o.err
	}
	if r, ok := o.ratings[playerID]; ok {
		return r, nil
	}
	return 1400, nil
}

func (o *fakeOracle) Population(mode types.Mode) []int { return o.populations[mode] }

type message struct {
	To   string
	Text string
}

type fakeTransport struct {
	mu         sync.Mutex
	fail       bool
	gate       chan struct{}
	entered    chan struct{}
	broadcasts []message
	statuses   []string
	directs    []message
}

var errOffline = errors.New("transport offline")

func (f *fakeTransport) Broadcast(channel, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errOffline
	}
	f.broadcasts = append(f.broadcasts, message{To: channel, Text: text})
	return nil
}

// holdNextStatus makes the next EditStatusMessage signal entered and wait
// until release is closed.
func (f *fakeTransport) holdNextStatus() (entered <-chan struct{}, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 1)
	return f.entered, f.gate
}

func (f *fakeTransport) EditStatusMessage(text string) error {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.gate = nil
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errOffline
	}
	f.statuses = append(f.statuses, text)
	return nil
}

func (f *fakeTransport) DirectMessage(playerID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errOffline
	}
	f.directs = append(f.directs, message{To: playerID, Text: text})
	return nil
}

func (f *fakeTransport) Broadcasts() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.broadcasts...)
}

func (f *fakeTransport) Directs() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.directs...)
}

func (f *fakeTransport) LastStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

var t0 = time.Unix(1_700_000_000, 0)

type harness struct {
	engine *Engine
	oracle *fakeOracle
	tr     *fakeTransport
	clock  *fakeClock
}

func newHarness(cfg Config) *harness {
	h := &harness{
		oracle: &fakeOracle{ratings: map[string]int{}, populations: map[types.Mode][]int{}},
		tr:     &fakeTransport{},
		clock:  &fakeClock{t: t0},
	}
	h.engine = NewEngine(cfg, queue.NewStore(), h.oracle, h.tr)
	h.engine.now = h.clock.Now
	return h
}

// at moves the clock to t0 plus the given number of seconds.
func (h *harness) at(seconds int) {
	h.clock.Set(t0.Add(time.Duration(seconds) * time.Second))
}

// seed queues an entry directly, skipping the immediate match attempt.
func (h *harness) seed(id string, mode types.Mode, rating int, enqueuedAt int) {
	h.engine.queue.Upsert(types.QueueEntry{
		PlayerID:    id,
		DisplayName: id,
		Rating:      rating,
		Mode:        mode,
		EnqueuedAt:  t0.Add(time.Duration(enqueuedAt) * time.Second),
	})
}

// ladder returns ratings from hi down to lo in steps of step.
func ladder(hi, lo, step int) []int {
	var out []int
	for r := hi; r >= lo; r -= step {
		out = append(out, r)
	}
	return out
}
