package target

import (
	"bufio"
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/hitzhangjie/tcgdbg/pkg/logger"
	"github.com/hitzhangjie/tcgdbg/pkg/symbol"
	"go.uber.org/atomic"
	"golang.org/x/arch/x86/x86asm"
	"golang.org/x/sys/unix"
)

var DBPProcess *DebuggedProcess

// Kind 发起调试的类型
type Kind int

const (
	EXEC   Kind = iota + 1 // 由调试器启动
	ATTACH                 // attach到运行中进程
)

// DebuggedProcess 被调试进程信息
type DebuggedProcess struct {
	Process *os.Process     // 进程信息
	Threads map[int]*Thread // 包含的线程列表,k=tid,v=thread

	Command string   // 进程启动命令，方便重启调试
	Args    []string // 进程启动参数，方便重启调试
	Kind    Kind     // 发起调试的类型

	BInfo       *symbol.BinaryInfo     // 可执行程序的符号信息
	Breakpoints map[uint64]*Breakpoint // 已经添加的断点,k=断点编号

	patched map[uintptr]byte              // 已写入0xCC的地址及原始数据
	modules map[string]*symbol.BinaryInfo // 已解析的模块,k=模块路径
	current int                           // 最近一次停下的线程

	interrupted *atomic.Bool
	running     *atomic.Bool

	once       *sync.Once
	ptraceCh   chan func() // ptrace请求统一发送到这里，由专门协程处理
	ptraceDone chan int    // ptrace请求完成
	stopCh     chan int    // 通知需要停止调试
}

func newDebuggedProcess(cmd string, args []string, kind Kind) *DebuggedProcess {
	return &DebuggedProcess{
		Threads:     map[int]*Thread{},
		Command:     cmd,
		Args:        args,
		Kind:        kind,
		Breakpoints: map[uint64]*Breakpoint{},
		patched:     map[uintptr]byte{},
		modules:     map[string]*symbol.BinaryInfo{},
		interrupted: atomic.NewBool(false),
		running:     atomic.NewBool(false),
		once:        &sync.Once{},
		ptraceCh:    make(chan func()),
		ptraceDone:  make(chan int),
		stopCh:      make(chan int),
	}
}

// NewDebuggedProcess 启动并跟踪一个待调试进程
func NewDebuggedProcess(cmd string, args []string) (*DebuggedProcess, error) {
	var (
		target = newDebuggedProcess(cmd, args, EXEC)
		err    error
	)
	defer func() {
		if err != nil {
			target.StopPtrace()
		}
	}()

	target.ExecPtrace(func() {
		// start and trace
		target.Process, err = target.launchCommand(cmd, args...)
		if err != nil {
			return
		}

		// trace newly created thread
		err = syscall.PtraceSetOptions(target.Process.Pid, syscall.PTRACE_O_TRACECLONE)
	})
	if err != nil {
		return nil, err
	}
	target.Threads[target.Process.Pid] = &Thread{Tid: target.Process.Pid, Process: target, stopped: true}
	target.current = target.Process.Pid

	// load binary info
	if target.BInfo, err = analyzeHost(target.Process.Pid); err != nil {
		return nil, err
	}
	return target, nil
}

// AttachTargetProcess trace一个目标进程（准确地说是线程）
func AttachTargetProcess(pid int) (*DebuggedProcess, error) {
	var (
		target = newDebuggedProcess("", nil, ATTACH)
		err    error
	)
	defer func() {
		if err != nil {
			target.StopPtrace()
		}
	}()

	if target.Process, err = os.FindProcess(pid); err != nil {
		return nil, err
	}

	target.ExecPtrace(func() {
		// attach to running process (thread)
		err = target.attach(pid)
	})
	if err != nil {
		return nil, err
	}
	target.current = pid

	// initialize the command and arguments,
	// after then, we could support restart command.
	if target.Command, err = readProcComm(pid); err != nil {
		return nil, err
	}

	if target.Args, err = readProcCommArgs(pid); err != nil {
		return nil, err
	}

	target.ExecPtrace(func() {
		// attach to other threads, and prepare to trace newly created thread
		err = target.updateThreadList()
	})
	if err != nil {
		return nil, err
	}

	if target.BInfo, err = analyzeHost(pid); err != nil {
		return nil, err
	}
	return target, nil
}

// analyzeHost loads the executable of pid, it must be x86_64 code since
// breakpoints, inferior calls and disassembly work on host instructions
func analyzeHost(pid int) (*symbol.BinaryInfo, error) {
	bi, err := symbol.Analyze(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		return nil, err
	}
	if err = bi.CheckMachine(elf.EM_X86_64); err != nil {
		return nil, err
	}
	return bi, nil
}

// launchCommand execute `execName` with `args`
//
// 为了方便调试，除了跟踪主线程，还需要考虑跟踪后续新创建的线程，linux 2.5.46中引入了以下ptrace选项，
// 通过设置该选项可以使得tracer自动跟踪新创建线程。
//
// PTRACE_O_TRACECLONE (since Linux 2.5.46)
//
//	Stop the tracee at the next clone(2) and
//	automatically start tracing the newly cloned
//	process, which will start with a SIGSTOP, or
//	PTRACE_EVENT_STOP if PTRACE_SEIZE was used.  A
//	waitpid(2) by the tracer will return a status value.
//
// see more info by `man 2 ptrace`.
func (t *DebuggedProcess) launchCommand(execName string, args ...string) (*os.Process, error) {

	progCmd := exec.Command(execName, args...)
	progCmd.Stdin = os.Stdin
	progCmd.Stdout = os.Stdout
	progCmd.Stderr = os.Stderr

	progCmd.SysProcAttr = &syscall.SysProcAttr{
		Ptrace:     true, // implies PTRACE_TRACEME
		Setpgid:    true,
		Foreground: false,
	}
	progCmd.Env = os.Environ()

	// start the process
	err := progCmd.Start()
	if err != nil {
		return nil, err
	}
	t.Process = progCmd.Process

	// wait target process stopped
	_, status, err := t.wait(progCmd.Process.Pid, syscall.WALL)
	if err != nil {
		return nil, err
	}
	logger.Verbose("process %d stopped: %v", progCmd.Process.Pid, status.Stopped())

	return progCmd.Process, nil
}

func (t *DebuggedProcess) ExecPtrace(fn func()) {
	t.once.Do(func() {
		go func() {
			// ensure all ptrace requests goes via the same tracer (thread)
			//
			// issue: https://github.com/golang/go/issues/7699
			//
			// 为什么syscall.PtraceDetach, detach error: no such process?
			// 因为ptrace请求应该来自相同的tracer线程
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			for {
				select {
				case reqFn := <-t.ptraceCh:
					reqFn()
					t.ptraceDone <- 1
				case <-t.stopCh:
					return
				}
			}
		}()
	})
	t.ptraceCh <- fn
	<-t.ptraceDone
}

func (t *DebuggedProcess) StopPtrace() {
	close(t.stopCh)
}

// attach attach to process pid
func (t *DebuggedProcess) attach(pid int) error {

	// check traceePID
	if !checkPid(pid) {
		return fmt.Errorf("process %d not existed", pid)
	}

	// attach
	err := syscall.PtraceAttach(pid)
	if err != nil {
		return fmt.Errorf("process %d attached error: %v", pid, err)
	}
	logger.Info("process %d attached succ", pid)

	// wait
	_, status, err := t.wait(pid, syscall.WALL)
	if err != nil {
		return fmt.Errorf("process %d waited error: %v", pid, err)
	}
	logger.Verbose("process %d stopped: %v", pid, status.Stopped())
	return nil
}

func (t *DebuggedProcess) Detach() error {

	// check traceePID
	if !checkPid(t.Process.Pid) {
		return fmt.Errorf("process %d not existed", t.Process.Pid)
	}

	// 断点指令必须先恢复，否则tracee继续运行会收到SIGTRAP
	if err := t.ClearAll(); err != nil {
		return err
	}

	// Detach all threads
	tids, err := t.loadThreadList()
	if err != nil {
		return err
	}

	for _, tid := range tids {
		t.ExecPtrace(func() {
			err = syscall.PtraceDetach(tid)
		})
		if err != nil {
			logger.Warn("thread %d detached error: %v", tid, err)
			continue
		}
		logger.Verbose("thread %d detached succ", tid)
	}
	return nil
}

func (t *DebuggedProcess) loadThreadList() ([]int, error) {
	threadIDs := []int{}

	tids, _ := filepath.Glob(fmt.Sprintf("/proc/%d/task/*", t.Process.Pid))
	for _, tidpath := range tids {
		tidstr := filepath.Base(tidpath)
		tid, err := strconv.Atoi(tidstr)
		if err != nil {
			return nil, err
		}
		threadIDs = append(threadIDs, tid)
	}
	return threadIDs, nil
}

func (t *DebuggedProcess) updateThreadList() error {

	tids, err := t.loadThreadList()
	if err != nil {
		return fmt.Errorf("load threads err: %v", err)
	}

	for _, tid := range tids {
		if tid != t.Process.Pid {
			// attach to thread
			err = syscall.PtraceAttach(tid)
			if err != nil && err != unix.EPERM {
				// Maybe we have traced tid via PTRACE_O_TRACECLONE.
				// If we try to attach to it again, it will fail.
				// We should ignore this kind of error.
				return fmt.Errorf("attach err: %v", err)
			}

			// wait thread
			_, status, err := t.wait(tid, syscall.WALL)
			if err != nil {
				return fmt.Errorf("wait err: %v", err)
			}
			if status.Exited() {
				logger.Verbose("thread:%d already exited", tid)
				continue
			}
		}

		// update thread
		err = syscall.PtraceSetOptions(tid, syscall.PTRACE_O_TRACECLONE)
		if err != nil {
			return fmt.Errorf("set PTRACE_O_TRACECLONE err: %v", err)
		}

		t.Threads[tid] = &Thread{
			Tid:     tid,
			Process: t,
			stopped: true,
		}
	}
	return nil
}

// checkPid check whether traceePID is valid process's id
//
// On Unix systems, os.FindProcess always succeeds and returns a Process for
// the given traceePID, regardless of whether the process exists.
func checkPid(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

// CurrentThread 最近一次停下的线程编号，寄存器、内存操作都作用于该线程
func (t *DebuggedProcess) CurrentThread() int {
	return t.current
}

// --------------------------------------------------------------------

// ListBreakpoints 列出所有断点
func (t *DebuggedProcess) ListBreakpoints() Breakpoints {
	bps := make(Breakpoints, 0, len(t.Breakpoints))
	for _, b := range t.Breakpoints {
		bps = append(bps, b)
	}
	sort.Sort(bps)
	return bps
}

// breakpointsAt 地址addr处的所有断点，按编号排序
func (t *DebuggedProcess) breakpointsAt(addr uintptr) Breakpoints {
	var bps Breakpoints
	for _, b := range t.Breakpoints {
		if b.Addr == addr {
			bps = append(bps, b)
		}
	}
	sort.Sort(bps)
	return bps
}

// IsBreakpoint 检查地址addr处是否有调试器添加的断点
func (t *DebuggedProcess) IsBreakpoint(addr uintptr) (bool, error) {
	_, ok := t.patched[addr]
	return ok, nil
}

// AddBreakpoint 在地址addr处添加断点，返回新创建的断点
//
// 同一地址可以添加多个断点，0xCC只写入一次。
func (t *DebuggedProcess) AddBreakpoint(addr uintptr) (*Breakpoint, error) {
	return t.AddBreakpointWithCallback(addr, "", nil, false)
}

// AddBreakpointWithCallback 在地址addr处添加断点，命中时执行cb
func (t *DebuggedProcess) AddBreakpointWithCallback(addr uintptr, location string, cb BreakpointCallback, autoContinue bool) (*Breakpoint, error) {
	if err := t.patch(addr); err != nil {
		return nil, err
	}

	bp := newBreakPoint(addr, location)
	bp.Callback = cb
	bp.AutoContinue = autoContinue
	t.Breakpoints[bp.ID] = bp

	logger.Verbose("breakpoint[%d] added at %#x %s", bp.ID, addr, location)
	return bp, nil
}

// AddFunctionBreakpoint 在函数name入口处添加断点，函数在所有已加载模块中查找
func (t *DebuggedProcess) AddFunctionBreakpoint(name string, cb BreakpointCallback, autoContinue bool) (*Breakpoint, error) {
	addr, err := t.SymbolAddress(name)
	if err != nil {
		return nil, err
	}
	return t.AddBreakpointWithCallback(uintptr(addr), name, cb, autoContinue)
}

func (t *DebuggedProcess) patch(addr uintptr) error {
	if _, ok := t.patched[addr]; ok {
		return nil
	}

	var err error
	t.ExecPtrace(func() {
		orig := [1]byte{}
		n, e := syscall.PtracePeekText(t.current, addr, orig[:])
		if e != nil || n != 1 {
			err = fmt.Errorf("peek text, %d bytes, error: %v", n, e)
			return
		}

		n, e = syscall.PtracePokeText(t.current, addr, []byte{0xCC})
		if e != nil || n != 1 {
			err = fmt.Errorf("poke text, %d bytes, error: %v", n, e)
			return
		}
		t.patched[addr] = orig[0]
	})
	return err
}

func (t *DebuggedProcess) unpatch(addr uintptr) error {
	orig, ok := t.patched[addr]
	if !ok {
		return nil
	}

	var err error
	t.ExecPtrace(func() {
		n, e := syscall.PtracePokeData(t.current, addr, []byte{orig})
		if e != nil || n != 1 {
			err = fmt.Errorf("ptrace poke data err: %v", e)
			return
		}
		delete(t.patched, addr)
	})
	return err
}

var (
	ErrBreakpointNotExisted = errors.New("breakpoint not existed")
)

// ClearBreakpoint 删除编号为id的断点，地址处没有其他断点时恢复原始指令
func (t *DebuggedProcess) ClearBreakpoint(id uint64) (*Breakpoint, error) {

	brk, ok := t.Breakpoints[id]
	if !ok {
		return nil, ErrBreakpointNotExisted
	}
	delete(t.Breakpoints, id)

	if len(t.breakpointsAt(brk.Addr)) != 0 {
		return brk, nil
	}
	if err := t.unpatch(brk.Addr); err != nil {
		return nil, err
	}
	return brk, nil
}

// ClearAll 删除所有已添加的断点
func (t *DebuggedProcess) ClearAll() error {
	for _, brk := range t.ListBreakpoints() {
		if _, err := t.ClearBreakpoint(brk.ID); err != nil {
			return fmt.Errorf("clear breakpoint %d err: %v", brk.ID, err)
		}
	}
	return nil
}

// --------------------------------------------------------------------

// StopEvent 描述Continue返回时tracee的状态
type StopEvent struct {
	Tid         int
	Status      syscall.WaitStatus
	PC          uint64
	Breakpoints Breakpoints // 停在断点处时，该地址的断点
	Exited      bool        // 进程已结束
	Interrupted bool        // 用户中断
}

func (e *StopEvent) String() string {
	switch {
	case e.Exited:
		return fmt.Sprintf("process %d %s", e.Tid, desc(&e.Status))
	case e.Interrupted:
		return fmt.Sprintf("thread %d interrupted at %#x", e.Tid, e.PC)
	case len(e.Breakpoints) != 0:
		return fmt.Sprintf("thread %d stopped at breakpoint[%d] %#x", e.Tid, e.Breakpoints[0].ID, e.PC)
	default:
		return fmt.Sprintf("thread %d %s at %#x", e.Tid, desc(&e.Status), e.PC)
	}
}

// 停下来交给用户处理的信号，其余信号直接转发给tracee
var stopSignals = map[syscall.Signal]bool{
	syscall.SIGSEGV: true,
	syscall.SIGBUS:  true,
	syscall.SIGILL:  true,
	syscall.SIGFPE:  true,
	syscall.SIGABRT: true,
}

// Continue 恢复所有已停下的线程，直到进程结束、被中断、或停在某个需要停下的断点处。
//
// 断点回调要求继续运行时（如AutoContinue），不会返回给用户。
func (t *DebuggedProcess) Continue() (*StopEvent, error) {
	t.interrupted.Store(false)
	t.running.Store(true)
	defer t.running.Store(false)

	for {
		if err := t.resumeStopped(); err != nil {
			return nil, err
		}

		var (
			wpid   int
			status *syscall.WaitStatus
			err    error
		)
		t.ExecPtrace(func() {
			wpid, status, err = t.wait(-1, syscall.WALL)
		})
		if err != nil {
			return nil, fmt.Errorf("wait err: %v", err)
		}

		th, ok := t.Threads[wpid]
		if !ok {
			// a cloned thread may report its SIGSTOP before the clone event
			th = &Thread{Tid: wpid, Process: t, fresh: true}
			t.Threads[wpid] = th
		}
		th.Status = *status

		if status.Exited() || status.Signaled() {
			delete(t.Threads, wpid)
			if wpid == t.Process.Pid {
				return &StopEvent{Tid: wpid, Status: *status, Exited: true}, nil
			}
			continue
		}
		if !status.Stopped() {
			continue
		}
		th.stopped = true

		stop, ev, err := t.handleStop(th, status)
		if err != nil {
			return nil, err
		}
		if stop {
			t.current = wpid
			return ev, nil
		}
	}
}

// handleStop 判断停下的线程th是否需要交给用户处理
func (t *DebuggedProcess) handleStop(th *Thread, status *syscall.WaitStatus) (bool, *StopEvent, error) {
	sig := status.StopSignal()

	// new cloned thread
	if sig == syscall.SIGTRAP && status.TrapCause() == syscall.PTRACE_EVENT_CLONE {
		var (
			cloned uint
			err    error
		)
		t.ExecPtrace(func() {
			cloned, err = syscall.PtraceGetEventMsg(th.Tid)
		})
		if err != nil {
			if err == syscall.ESRCH {
				// thread died while we were adding it
				return false, nil, nil
			}
			return false, nil, fmt.Errorf("could not get event message: %s", err)
		}
		if _, ok := t.Threads[int(cloned)]; !ok {
			t.Threads[int(cloned)] = &Thread{Tid: int(cloned), Process: t, fresh: true}
		}
		logger.Debug("thread %d cloned thread %d", th.Tid, cloned)
		return false, nil, nil
	}

	if sig == syscall.SIGSTOP && th.fresh {
		th.fresh = false
		return false, nil, nil
	}

	if sig == syscall.SIGSTOP && t.interrupted.Load() {
		t.interrupted.Store(false)
		pc, _ := t.threadPC(th.Tid)
		return true, &StopEvent{Tid: th.Tid, Status: *status, PC: pc, Interrupted: true}, nil
	}

	if sig != syscall.SIGTRAP {
		if stopSignals[sig] {
			th.pendingSig = sig
			pc, _ := t.threadPC(th.Tid)
			return true, &StopEvent{Tid: th.Tid, Status: *status, PC: pc}, nil
		}
		logger.Debug("thread %d received %v, pass it through", th.Tid, sig)
		th.pendingSig = sig
		return false, nil, nil
	}

	regs, err := t.threadRegs(th.Tid)
	if err != nil {
		return false, nil, err
	}

	// int3 executed, pc is one byte past the breakpoint
	addr := uintptr(regs.Rip - 1)
	if _, ok := t.patched[addr]; !ok {
		return true, &StopEvent{Tid: th.Tid, Status: *status, PC: regs.Rip}, nil
	}

	// rewind 1 byte
	regs.Rip--
	if err := t.setThreadRegs(th.Tid, regs); err != nil {
		return false, nil, err
	}

	// callbacks may operate on the tracee, use the thread that is stopped
	t.current = th.Tid
	bps := t.breakpointsAt(addr)
	if stop := bps.onHit(NewRegisters(regs)); !stop {
		return false, nil, nil
	}
	return true, &StopEvent{Tid: th.Tid, Status: *status, PC: regs.Rip, Breakpoints: bps}, nil
}

// resumeStopped 恢复所有停下的线程，停在断点处的线程先单步越过断点
func (t *DebuggedProcess) resumeStopped() error {
	for _, th := range t.Threads {
		if !th.stopped {
			continue
		}

		if err := t.stepOverBreakpoint(th); err != nil {
			return err
		}
		if _, ok := t.Threads[th.Tid]; !ok {
			continue // exited while stepping
		}

		var err error
		sig := int(th.pendingSig)
		t.ExecPtrace(func() {
			err = syscall.PtraceCont(th.Tid, sig)
		})
		if err != nil {
			if err == syscall.ESRCH {
				delete(t.Threads, th.Tid)
				continue
			}
			return fmt.Errorf("thread: %d ptrace cont, err: %v", th.Tid, err)
		}
		th.stopped = false
		th.pendingSig = 0
	}
	return nil
}

// stepOverBreakpoint 如果线程th的pc处是断点，恢复原始指令后单步执行，再重新写入断点
func (t *DebuggedProcess) stepOverBreakpoint(th *Thread) error {
	pc, err := t.threadPC(th.Tid)
	if err != nil {
		return err
	}
	orig, ok := t.patched[uintptr(pc)]
	if !ok {
		return nil
	}

	var status *syscall.WaitStatus
	t.ExecPtrace(func() {
		if _, err = syscall.PtracePokeData(th.Tid, uintptr(pc), []byte{orig}); err != nil {
			return
		}
		if err = syscall.PtraceSingleStep(th.Tid); err != nil {
			return
		}
		if _, status, err = t.wait(th.Tid, syscall.WALL); err != nil {
			return
		}
		if status.Exited() || status.Signaled() {
			return
		}
		_, err = syscall.PtracePokeData(th.Tid, uintptr(pc), []byte{0xCC})
	})
	if err != nil {
		return fmt.Errorf("step over breakpoint %#x err: %v", pc, err)
	}

	if status.Exited() || status.Signaled() {
		delete(t.Threads, th.Tid)
		return nil
	}
	if sig := status.StopSignal(); sig != syscall.SIGTRAP {
		th.pendingSig = sig
	}
	return nil
}

// Running 是否正在Continue中
func (t *DebuggedProcess) Running() bool {
	return t.running.Load()
}

// Interrupt 中断正在运行的tracee，Continue返回Interrupted事件
func (t *DebuggedProcess) Interrupt() error {
	t.interrupted.Store(true)
	return unix.Tgkill(t.Process.Pid, t.Process.Pid, unix.SIGSTOP)
}

func desc(status *syscall.WaitStatus) string {
	switch {
	case status.Continued():
		return "continued"
	case status.Exited():
		return "exited: " + strconv.Itoa(status.ExitStatus())
	case status.Signaled():
		return "signaled: " + status.Signal().String()
	case status.Stopped():
		return "stopped: " + status.StopSignal().String()
	case status.CoreDump():
		return "coredump"
	default:
		return strconv.Itoa(int(*status))
	}
}

// SingleStep 当前线程执行一条指令，会越过当前pc处的断点
func (t *DebuggedProcess) SingleStep() (*syscall.WaitStatus, error) {
	pc, err := t.threadPC(t.current)
	if err != nil {
		return nil, err
	}
	orig, isBreak := t.patched[uintptr(pc)]

	// MUST: 当发起了某些对tracee执行控制的ptrace request之后，要调用wait等待并获取tracee状态变化
	var status *syscall.WaitStatus
	t.ExecPtrace(func() {
		if isBreak {
			if _, err = syscall.PtracePokeData(t.current, uintptr(pc), []byte{orig}); err != nil {
				return
			}
		}
		if err = syscall.PtraceSingleStep(t.current); err != nil {
			return
		}
		if _, status, err = t.wait(t.current, syscall.WALL); err != nil {
			err = fmt.Errorf("wait error: %v", err)
			return
		}
		if isBreak && status.Stopped() {
			_, err = syscall.PtracePokeData(t.current, uintptr(pc), []byte{0xCC})
		}
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// --------------------------------------------------------------------

// Disassemble 反汇编地址addr处的指令，断点处显示原始指令
func (t *DebuggedProcess) Disassemble(addr, max uint64, syntax string) error {

	// 指令数据
	dat := make([]byte, 1024)
	n, err := t.ReadMemory(uintptr(addr), dat)
	if err != nil || n == 0 {
		return fmt.Errorf("peek text error: %v, bytes: %d", err, n)
	}
	dat = dat[:n]
	for a, orig := range t.patched {
		if uint64(a) >= addr && uint64(a) < addr+uint64(n) {
			dat[uint64(a)-addr] = orig
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 8, ' ', 0)
	defer tw.Flush()

	// 反汇编这里的指令数据
	offset := uint64(0)
	count := uint64(0)

	for count < max && offset < uint64(len(dat)) {
		inst, err := x86asm.Decode(dat[offset:], 64)
		if err != nil {
			return fmt.Errorf("x86asm decode error: %v", err)
		}

		asm, err := instSyntax(inst, addr+offset, syntax)
		if err != nil {
			return fmt.Errorf("x86asm syntax error: %v", err)
		}

		mark := ""
		if _, ok := t.patched[uintptr(addr+offset)]; ok {
			mark = "*"
		}

		end := offset + uint64(inst.Len)
		fmt.Fprintf(tw, "%s%#x:\t% x\t%s\n", mark, addr+offset, dat[offset:end], asm)
		offset = end
		count++
	}
	return nil
}

func instSyntax(inst x86asm.Inst, pc uint64, syntax string) (string, error) {
	asm := ""
	switch syntax {
	case "go":
		asm = x86asm.GoSyntax(inst, pc, nil)
	case "gnu":
		asm = x86asm.GNUSyntax(inst, pc, nil)
	case "intel":
		asm = x86asm.IntelSyntax(inst, pc, nil)
	default:
		return "", fmt.Errorf("invalid asm syntax error")
	}
	return asm, nil
}

// --------------------------------------------------------------------

// ReadMemory 读取内存地址addr处的数据，并存储到buf中，函数返回实际读取的字节数
func (t *DebuggedProcess) ReadMemory(addr uintptr, buf []byte) (int, error) {
	var (
		n   int
		err error
	)
	t.ExecPtrace(func() {
		// PtracePeekText 与 PtracePeekData 效果相同
		n, err = syscall.PtracePeekText(t.current, addr, buf)
	})
	return n, err
}

// WriteMemory 设置内存地址addr处的值为value
func (t *DebuggedProcess) WriteMemory(addr uintptr, value []byte) error {
	var (
		n   int
		err error
	)
	t.ExecPtrace(func() {
		n, err = syscall.PtracePokeData(t.current, addr, value)
	})
	if err != nil {
		return err
	}
	if n != len(value) {
		return fmt.Errorf("poke data, %d of %d bytes written", n, len(value))
	}
	return nil
}

// ReadUint64 读取addr处的8字节无符号整数
func (t *DebuggedProcess) ReadUint64(addr uint64) (uint64, error) {
	buf := make([]byte, 8)
	n, err := t.ReadMemory(uintptr(addr), buf)
	if err != nil {
		return 0, err
	}
	if n != len(buf) {
		return 0, fmt.Errorf("peek data, %d of %d bytes read", n, len(buf))
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// WriteUint64 在addr处写入8字节无符号整数
func (t *DebuggedProcess) WriteUint64(addr, value uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	return t.WriteMemory(uintptr(addr), buf)
}

// ReadRegister 读取当前线程寄存器的数据
func (t *DebuggedProcess) ReadRegister() (*syscall.PtraceRegs, error) {
	return t.threadRegs(t.current)
}

// WriteRegister 设置当前线程寄存器的值
func (t *DebuggedProcess) WriteRegister(regs *syscall.PtraceRegs) error {
	return t.setThreadRegs(t.current, regs)
}

// Registers 当前线程寄存器的命名视图
func (t *DebuggedProcess) Registers() (*Registers, error) {
	regs, err := t.ReadRegister()
	if err != nil {
		return nil, err
	}
	return NewRegisters(regs), nil
}

func (t *DebuggedProcess) threadRegs(tid int) (*syscall.PtraceRegs, error) {
	var (
		regs syscall.PtraceRegs
		err  error
	)
	t.ExecPtrace(func() {
		err = syscall.PtraceGetRegs(tid, &regs)
	})
	if err != nil {
		return nil, fmt.Errorf("get regs error: %v", err)
	}
	return &regs, nil
}

func (t *DebuggedProcess) setThreadRegs(tid int, regs *syscall.PtraceRegs) error {
	var err error
	t.ExecPtrace(func() {
		err = syscall.PtraceSetRegs(tid, regs)
	})
	if err != nil {
		return fmt.Errorf("set regs error: %v", err)
	}
	return nil
}

func (t *DebuggedProcess) threadPC(tid int) (uint64, error) {
	regs, err := t.threadRegs(tid)
	if err != nil {
		return 0, err
	}
	return regs.PC(), nil
}

// --------------------------------------------------------------------

func (t *DebuggedProcess) wait(pid, options int) (int, *syscall.WaitStatus, error) {
	var s syscall.WaitStatus
	if pid == -1 || (t.Process.Pid != pid) || (options&^syscall.WALL != 0) {
		wpid, err := syscall.Wait4(pid, &s, syscall.WALL|options, nil)
		return wpid, &s, err
	}
	// If we call wait4/waitpid on a thread that is the leader of its group,
	// with options == 0, while ptracing and the thread leader has exited leaving
	// zombies of its own then waitpid hangs forever this is apparently intended
	// behaviour in the linux kernel because it's just so convenient.
	// Therefore we call wait4 in a loop with WNOHANG, sleeping a while between
	// calls and exiting when either wait4 succeeds or we find out that the thread
	// has become a zombie.
	// References:
	// https://sourceware.org/bugzilla/show_bug.cgi?id=12702
	// https://sourceware.org/bugzilla/show_bug.cgi?id=10095
	// https://sourceware.org/bugzilla/attachment.cgi?id=5685
	for {
		wpid, err := syscall.Wait4(pid, &s, syscall.WNOHANG|syscall.WALL|options, nil)
		if err != nil {
			return 0, nil, err
		}
		if wpid != 0 {
			return wpid, &s, err
		}
		if status(pid) == statusZombie {
			return pid, &s, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func status(pid int) rune {
	f, err := os.Open(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return '\000'
	}
	defer f.Close()
	rd := bufio.NewReader(f)

	// The second field of /proc/pid/stat is the name of the task in parenthesis.
	// Both parenthesis and spaces can appear inside the name, the state
	// follows the last ')'.
	line, _ := rd.ReadString('\n')
	for i := len(line) - 1; i >= 0; i-- {
		if line[i] == ')' && i+2 < len(line) {
			return rune(line[i+2])
		}
	}
	return '\000'
}

// Process statuses
const (
	statusSleeping  = 'S'
	statusRunning   = 'R'
	statusTraceStop = 't'
	statusZombie    = 'Z'
)
