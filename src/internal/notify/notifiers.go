package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/maksimkurb/keen-ipmon/src/internal/log"
)

// ChangesEnv carries the changed categories to notification hooks.
const ChangesEnv = "KEEN_IPMON_CHANGES"

const defaultCommandTimeout = 30 * time.Second

// LogNotifier logs every notification.
type LogNotifier struct{}

func (LogNotifier) Notify(change Change) error {
	log.Infof("Network configuration changed: %s", change)
	return nil
}

// CommandNotifier runs a hook command for every notification. The changed
// categories are passed in the KEEN_IPMON_CHANGES environment variable.
type CommandNotifier struct {
	command []string
	timeout time.Duration
}

func NewCommandNotifier(command []string, timeout time.Duration) *CommandNotifier {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &CommandNotifier{command: command, timeout: timeout}
}

func (n *CommandNotifier) Notify(change Change) error {
	if len(n.command) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, n.command[0], n.command[1:]...)
	cmd.Env = append(os.Environ(), ChangesEnv+"="+change.String())
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("hook %s failed: %w (output: %s)", n.command[0], err, output)
	}
	log.Debugf("Hook %s finished: %s", n.command[0], output)
	return nil
}

// MultiNotifier fans a notification out to several notifiers.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(change Change) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AsyncNotifier delivers notifications to the wrapped notifier on its own
// goroutine, in order, so slow hooks never block the caller.
type AsyncNotifier struct {
	next  Notifier
	queue chan Change
	done  chan struct{}
}

const asyncQueueSize = 16

func NewAsyncNotifier(next Notifier) *AsyncNotifier {
	n := &AsyncNotifier{
		next:  next,
		queue: make(chan Change, asyncQueueSize),
		done:  make(chan struct{}),
	}
	go n.run()
	return n
}

// Notify queues the change. When the queue is full the change is merged
// into the next queued delivery.
func (n *AsyncNotifier) Notify(change Change) error {
	for {
		select {
		case n.queue <- change:
			return nil
		default:
		}
		select {
		case queued := <-n.queue:
			change |= queued
		default:
		}
	}
}

// Close stops accepting notifications and waits for queued ones.
func (n *AsyncNotifier) Close() {
	close(n.queue)
	<-n.done
}

func (n *AsyncNotifier) run() {
	defer close(n.done)
	for change := range n.queue {
		if err := n.next.Notify(change); err != nil {
			log.Warnf("Failed to deliver change notification: %v", err)
		}
	}
}
