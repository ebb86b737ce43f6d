package notify

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingNotifier struct{ err error }

func (n failingNotifier) Notify(Change) error { return n.err }

func TestMultiNotifier(t *testing.T) {
	recorder := &recordingNotifier{}
	boom := errors.New("boom")

	err := MultiNotifier{LogNotifier{}, failingNotifier{boom}, recorder}.Notify(ChangeNet)
	require.ErrorIs(t, err, boom)
	require.Equal(t, []Change{ChangeNet}, recorder.calls, "a failing notifier must not stop the others")

	require.NoError(t, MultiNotifier{LogNotifier{}}.Notify(ChangeDNS))
}

type channelNotifier chan Change

func (n channelNotifier) Notify(change Change) error {
	n <- change
	return nil
}

func TestAsyncNotifier(t *testing.T) {
	delivered := make(channelNotifier, 4)
	n := NewAsyncNotifier(delivered)

	require.NoError(t, n.Notify(ChangeNet))
	require.NoError(t, n.Notify(ChangeDNS|ChangeProxy))
	n.Close()

	require.Equal(t, ChangeNet, <-delivered)
	require.Equal(t, ChangeDNS|ChangeProxy, <-delivered)
}

func TestCommandNotifier(t *testing.T) {
	out := filepath.Join(t.TempDir(), "changes")
	n := NewCommandNotifier([]string{"/bin/sh", "-c", `printf %s "$` + ChangesEnv + `" > "$0"`, out}, 5*time.Second)

	require.NoError(t, n.Notify(ChangeNet|ChangeDNS))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "net,dns", string(data))

	failing := NewCommandNotifier([]string{"/bin/sh", "-c", "echo nope; exit 3"}, 0)
	err = failing.Notify(ChangeNet)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "nope"), "hook output is part of the error: %v", err)

	require.NoError(t, NewCommandNotifier(nil, 0).Notify(ChangeNet))
}
