// Package lifecycle runs npm lifecycle scripts (preinstall/install/
// postinstall) under an allow-list: each script runs once to completion (no
// restart/splay machinery, unlike a long-running dev process manager), in a
// fixed ordering with INIT_CWD/PATH/NPM_CONFIG_USER_AGENT env wiring.
package lifecycle

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ExitCodeOK is the exit code recorded for a successful script run.
const ExitCodeOK = 0

// ExitCodeError is used when the exit status can't be determined precisely.
const ExitCodeError = 127

// child wraps a single lifecycle-script child process.
type child struct {
	sync.RWMutex

	killTimeout time.Duration
	cmd *exec.Cmd
	exitCh chan int

	stopLock sync.RWMutex
	stopCh chan struct{}
	stopped bool

	label string
	logger hclog.Logger
}

func newChild(cmd *exec.Cmd, logger hclog.Logger) *child {
	label := fmt.Sprintf("(%v) %v", cmd.Dir, strings.Join(cmd.Args, " "))
	return &child{
		cmd: cmd,
		killTimeout: 10 * time.Second,
		stopCh: make(chan struct{}, 1),
		label: label,
		logger: logger.Named(label),
	}
}

func (c *child) Command() string { return c.label }

func (c *child) ExitCh() <-chan int {
	c.RLock()
	defer c.RUnlock()
	return c.exitCh
}

func (c *child) Start() error {
	c.Lock()
	defer c.Unlock()
	setSetpgid(c.cmd, true)
	if err := c.cmd.Start(); err != nil {
		return err
	}

	exitCh := make(chan int, 1)
	go func() {
		var code int
		c.RLock()
		cmd := c.cmd
		c.RUnlock()
		var err error
		if cmd != nil {
			err = cmd.Wait()
		}
		if err == nil {
			code = ExitCodeOK
		} else {
			code = ExitCodeError
			if exitErr, ok := err.(*exec.ExitError); ok {
				if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
					code = status.ExitStatus()
				}
			}
		}
		c.stopLock.RLock()
		defer c.stopLock.RUnlock()
		if !c.stopped {
			select {
			case <-c.stopCh:
			case exitCh <- code:
			}
		}
		close(exitCh)
	}()
	c.exitCh = exitCh
	return nil
}

func (c *child) Stop() {
	c.Lock()
	defer c.Unlock()
	c.stopLock.Lock()
	defer c.stopLock.Unlock()
	if c.stopped {
		return
	}
	c.kill()
	close(c.stopCh)
	c.stopped = true
}

func (c *child) kill() {
	if c.cmd == nil || c.cmd.Process == nil {
		return
	}
	killCh := make(chan struct{}, 1)
	go func() {
		defer close(killCh)
		c.cmd.Process.Wait()
	}()
	_ = c.cmd.Process.Signal(os.Interrupt)
	select {
	case <-c.stopCh:
	case <-killCh:
	case <-time.After(c.killTimeout):
		c.logger.Debug("kill timeout, force-killing")
		c.cmd.Process.Kill()
	}
}
