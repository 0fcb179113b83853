package process

import (
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleKillAfterReap(t *testing.T) {
	cmd := exec.Command(os.Args[0], helperArgs("exit", "0")...)
	require.NoError(t, cmd.Start())
	// Reaped, but the handle has not observed the exit yet.
	_ = cmd.Wait()

	h := &Handle{cmd: cmd, done: make(chan struct{})}
	require.False(t, h.Exited())
	assert.NoError(t, h.Kill())
}

func TestHandleKill(t *testing.T) {
	h, err := start(exec.Command(os.Args[0], helperArgs("sleep")...))
	require.NoError(t, err)

	require.NoError(t, h.Kill())
	<-h.done
	assert.True(t, h.Exited())
	assert.NoError(t, h.Kill())
}
