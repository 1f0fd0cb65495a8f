//go:build windows

package runner

import (
	"os"
	"os/exec"

	"golang.org/x/sys/windows"
)

func prepare(cmd *exec.Cmd) {}

func lowerPriority(p *os.Process) error {
	h, err := windows.OpenProcess(windows.PROCESS_SET_INFORMATION, false, uint32(p.Pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)

	return windows.SetPriorityClass(h, windows.IDLE_PRIORITY_CLASS)
}

func kill(p *os.Process) error {
	return p.Kill()
}
