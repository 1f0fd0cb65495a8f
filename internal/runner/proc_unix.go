//go:build unix

package runner

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// lowestPriority is the highest nice value.
const lowestPriority = 19

func prepare(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func lowerPriority(p *os.Process) error {
	return unix.Setpriority(unix.PRIO_PROCESS, p.Pid, lowestPriority)
}

// kill terminates the whole process group so that helpers spawned by the
// analyzer do not keep the output pipes open.
func kill(p *os.Process) error {
	err := unix.Kill(-p.Pid, unix.SIGKILL)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	return p.Kill()
}
