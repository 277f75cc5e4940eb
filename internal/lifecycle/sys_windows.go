//go:build windows
// +build windows

package lifecycle

import "os/exec"

func setSetpgid(cmd *exec.Cmd, value bool) {}
