package process

import (
	"errors"
	"os"
	"os/exec"
)

// Handle is a process started by the Controller. Its exit is collected in
// the background so callers can poll it.
type Handle struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func start(cmd *exec.Cmd) (*Handle, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	h := &Handle{cmd: cmd, done: make(chan struct{})}
	go func() {
		h.err = cmd.Wait()
		close(h.done)
	}()
	return h, nil
}

func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Kill is a no-op once the process is gone, including when it is reaped
// between the Exited check and the signal.
func (h *Handle) Kill() error {
	if h.Exited() {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// exitCode must only be called once Exited reports true.
func (h *Handle) exitCode() (int, error) {
	if h.err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(h.err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, h.err
}
