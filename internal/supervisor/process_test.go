package supervisor

import (
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func launchShell(t *testing.T, script string) *Process {
	t.Helper()
	p, err := Launch(Spec{
		Command: "sh",
		Args:    []string{"-c", script},
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	})
	require.NoError(t, err)
	return p
}

func TestLaunchAndWaitCleanExit(t *testing.T) {
	p := launchShell(t, "exit 0")
	assert.Equal(t, 0, p.Wait())
	assert.False(t, p.Alive())
}

func TestLaunchAndWaitCrashExitCode(t *testing.T) {
	p := launchShell(t, "exit 3")
	assert.Equal(t, 3, p.Wait())
}

func TestLaunchAliveWhileRunning(t *testing.T) {
	p := launchShell(t, "sleep 5")
	assert.True(t, p.Alive())
	assert.Greater(t, p.PID(), 0)
	assert.False(t, p.StartTime().IsZero())

	require.NoError(t, p.Signal(syscall.SIGTERM))
	code := p.Wait()
	assert.Equal(t, 128+15, code)
	assert.False(t, p.Alive())
}

func TestLaunchMissingCommand(t *testing.T) {
	_, err := Launch(Spec{Command: "definitely-not-a-real-binary-7f3a"})
	assert.ErrorIs(t, err, ErrCommandMissing)
}

func TestLaunchEmptyCommand(t *testing.T) {
	_, err := Launch(Spec{})
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestDoneChannelCloses(t *testing.T) {
	p := launchShell(t, "exit 0")
	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("done channel never closed")
	}
}

func TestLaunchWithEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	p, err := Launch(Spec{
		Command: "sh",
		Args:    []string{"-c", `[ "$PROBE_VAR" = "probe-value" ] && [ "$PWD" = "` + dir + `" ]`},
		Dir:     dir,
		Env:     map[string]string{"PROBE_VAR": "probe-value"},
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Wait())
}
