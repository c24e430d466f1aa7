package target

import (
	"encoding/binary"
	"fmt"
	"os"
	"syscall"

	"github.com/hitzhangjie/tcgdbg/pkg/callconv"
	"github.com/hitzhangjie/tcgdbg/pkg/logger"
)

// stack space skipped below the thread's sp before building the call frame,
// it has to cover the SysV red zone
const callStackReserve = 256

// CallFunction 在当前线程上调用tracee中的函数name，返回其整数返回值
func (t *DebuggedProcess) CallFunction(name string, args ...uint64) (uint64, error) {
	addr, err := t.SymbolAddress(name)
	if err != nil {
		return 0, err
	}
	logger.Debug("call %s(%#x) at %#x on thread %d", name, args, addr, t.current)
	return t.CallAddress(addr, args...)
}

// CallAddress 在当前线程上调用地址addr处的函数
//
// 调用前保存寄存器，按SysV AMD64约定传参，返回地址设为程序入口点，并在入口点写入0xCC，
// 函数返回时触发SIGTRAP，读取rax后恢复入口点指令和寄存器。
// 调用期间只有当前线程运行。
func (t *DebuggedProcess) CallAddress(addr uint64, args ...uint64) (uint64, error) {
	tid := t.current

	saved, err := t.threadRegs(tid)
	if err != nil {
		return 0, err
	}

	retAddr, err := t.entryAddress()
	if err != nil {
		return 0, err
	}

	// return address trap, the user may already have a breakpoint there
	_, wasPatched := t.patched[uintptr(retAddr)]
	if !wasPatched {
		if err = t.patch(uintptr(retAddr)); err != nil {
			return 0, err
		}
		defer t.unpatch(uintptr(retAddr))
	}
	defer func() {
		if e := t.setThreadRegs(tid, saved); e != nil {
			logger.Error("restore registers of thread %d err: %v", tid, e)
		}
	}()

	// build call frame: aligned sp, then push the return address
	sp := (saved.Rsp - callStackReserve) &^ 0xf
	sp -= 8
	ret := make([]byte, 8)
	binary.LittleEndian.PutUint64(ret, retAddr)
	if err = t.WriteMemory(uintptr(sp), ret); err != nil {
		return 0, fmt.Errorf("push return address err: %v", err)
	}

	regs := *saved
	call := NewRegisters(&regs)
	if err = callconv.SysVAMD64.Encode(call, args...); err != nil {
		return 0, err
	}
	regs.Rsp = sp
	regs.Rip = addr
	regs.Rax = 0
	// keep the kernel from restarting an interrupted syscall on the new pc
	regs.Orig_rax = ^uint64(0)
	if err = t.setThreadRegs(tid, &regs); err != nil {
		return 0, err
	}

	for {
		var status *syscall.WaitStatus
		t.ExecPtrace(func() {
			if err = syscall.PtraceCont(tid, 0); err != nil {
				return
			}
			_, status, err = t.wait(tid, syscall.WALL)
		})
		if err != nil {
			return 0, fmt.Errorf("call %#x err: %v", addr, err)
		}

		if status.Exited() || status.Signaled() {
			return 0, fmt.Errorf("call %#x: process %s", addr, desc(status))
		}
		if sig := status.StopSignal(); sig != syscall.SIGTRAP {
			return 0, fmt.Errorf("call %#x interrupted by %v", addr, sig)
		}

		now, e := t.threadRegs(tid)
		if e != nil {
			return 0, e
		}
		if now.Rip-1 == retAddr {
			return now.Rax, nil
		}

		// a breakpoint inside the callee, callbacks are not run during calls
		if _, ok := t.patched[uintptr(now.Rip-1)]; ok {
			now.Rip--
			if err = t.setThreadRegs(tid, now); err != nil {
				return 0, err
			}
			th, ok := t.Threads[tid]
			if !ok {
				return 0, fmt.Errorf("call %#x: thread %d not traced", addr, tid)
			}
			if err = t.stepOverBreakpoint(th); err != nil {
				return 0, err
			}
			continue
		}
		return 0, fmt.Errorf("call %#x: unexpected trap at %#x", addr, now.Rip)
	}
}

// entryAddress runtime address of the executable's entry point
func (t *DebuggedProcess) entryAddress() (uint64, error) {
	exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", t.Process.Pid))
	if err != nil {
		return 0, err
	}
	mod, err := t.FindModule(exe)
	if err != nil {
		return 0, err
	}
	bias, err := t.objectBias(mod, t.BInfo)
	if err != nil {
		return 0, err
	}
	return t.BInfo.Entry + bias, nil
}
