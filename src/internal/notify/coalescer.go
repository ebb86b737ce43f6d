package notify

import (
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/log"
)

// DefaultGracePeriod bounds the wait for acknowledgments.
const DefaultGracePeriod = 5 * time.Second

// State is the state of a Coalescer.
type State int

const (
	StateIdle State = iota
	StatePendingAck
	StatePosted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingAck:
		return "pending-ack"
	case StatePosted:
		return "posted"
	}
	return "unknown"
}

const (
	postReasonAck     = "ack"
	postReasonTimeout = "timeout"
)

// Notifier receives coalesced change notifications.
type Notifier interface {
	Notify(change Change) error
}

// Coalescer turns change signals into notifications. It is not safe for
// concurrent use.
type Coalescer struct {
	notifier Notifier
	executor Executor
	clock    Clock
	grace    time.Duration

	state       State
	bits        Change
	windowStart time.Time
	timer       Timer
	// generation identifies the armed timer; a fire carrying an older
	// generation is ignored.
	generation uint64
	dnsAck     bool
	nwiAck     bool
}

func NewCoalescer(notifier Notifier, executor Executor, clock Clock, grace time.Duration) *Coalescer {
	if clock == nil {
		clock = RealClock()
	}
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Coalescer{
		notifier: notifier,
		executor: executor,
		clock:    clock,
		grace:    grace,
	}
}

// Changed merges change bits into the pending notification. The first bits
// of a cycle start the grace timer; later bits never restart it.
func (c *Coalescer) Changed(bits Change) {
	if bits == 0 {
		return
	}

	if c.state != StatePendingAck {
		c.state = StatePendingAck
		c.windowStart = c.clock.Now()
		c.arm()
		log.Debugf("Change cycle started with %s", bits)
	}
	c.bits |= bits
	c.dnsAck = false
	c.nwiAck = false
}

// DNSAck records whether the DNS publisher caught up with the last pass.
func (c *Coalescer) DNSAck(ok bool) {
	c.dnsAck = ok
	c.maybePost()
}

// NWIAck records whether the NWI publisher caught up with the last pass.
func (c *Coalescer) NWIAck(ok bool) {
	c.nwiAck = ok
	c.maybePost()
}

// State returns the current state.
func (c *Coalescer) State() State {
	return c.state
}

// Pending returns the accumulated change bits.
func (c *Coalescer) Pending() Change {
	return c.bits
}

func (c *Coalescer) arm() {
	c.stopTimer()
	c.generation++
	generation := c.generation
	c.timer = c.clock.AfterFunc(c.grace, func() {
		c.executor.Submit(func() { c.fire(generation) })
	})
}

func (c *Coalescer) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coalescer) fire(generation uint64) {
	if c.state != StatePendingAck || generation != c.generation {
		return
	}
	c.post(postReasonTimeout)
}

func (c *Coalescer) maybePost() {
	if c.state == StatePendingAck && c.dnsAck && c.nwiAck {
		c.post(postReasonAck)
	}
}

func (c *Coalescer) post(reason string) {
	c.state = StatePosted
	bits := c.bits
	c.bits = 0
	c.stopTimer()
	c.generation++

	log.Debugf("Posting %s change after %v (%s)", bits, c.clock.Now().Sub(c.windowStart), reason)
	notifications.WithLabelValues(reason).Inc()
	if err := c.notifier.Notify(bits); err != nil {
		log.Warnf("Failed to deliver change notification: %v", err)
	}

	c.dnsAck = false
	c.nwiAck = false
	c.state = StateIdle
}
