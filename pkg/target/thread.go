package target

import (
	"syscall"
)

// Thread 线程信息
type Thread struct {
	Tid     int                // thread ID
	Status  syscall.WaitStatus // wait status
	Process *DebuggedProcess   // process this thread belongs to

	stopped    bool           // in ptrace-stop, must be resumed by us
	fresh      bool           // cloned, its initial SIGSTOP not seen yet
	pendingSig syscall.Signal // signal to deliver on next resume
}
