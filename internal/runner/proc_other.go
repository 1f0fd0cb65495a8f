//go:build !unix && !windows

package runner

import (
	"os"
	"os/exec"
)

func prepare(cmd *exec.Cmd) {}

func lowerPriority(p *os.Process) error {
	return nil
}

func kill(p *os.Process) error {
	return p.Kill()
}
