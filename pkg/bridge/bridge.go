// Package bridge sets breakpoints on guest program counters of the binary
// translator under debugging.
//
// The translator keeps a guest to host address table and a set of pending
// guest addresses. Its debug helpers are reached by calling them in the
// tracee: the query helper writes the host address of a translated guest pc
// into an output variable, the pending helper records a guest pc that has not
// been translated yet. When the translator later translates a pending pc it
// calls the notify helper with (guest, host), where the bridge keeps an
// auto-continue breakpoint to set the real breakpoint at host.
package bridge

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/hitzhangjie/tcgdbg/pkg/callconv"
	"github.com/hitzhangjie/tcgdbg/pkg/config"
	"github.com/hitzhangjie/tcgdbg/pkg/logger"
	"github.com/hitzhangjie/tcgdbg/pkg/target"
)

// Target the debuggee operations the bridge relies on, *target.DebuggedProcess
// implements it.
type Target interface {
	LoadBias(module, section string) (uint64, error)
	SymbolAddress(name string) (uint64, error)
	CallFunction(name string, args ...uint64) (uint64, error)
	ReadUint64(addr uint64) (uint64, error)
	WriteMemory(addr uintptr, value []byte) error
	AddBreakpoint(addr uintptr) (*target.Breakpoint, error)
	AddFunctionBreakpoint(name string, cb target.BreakpointCallback, autoContinue bool) (*target.Breakpoint, error)
}

// State of a guest address breakpoint request
type State int

const (
	Requested State = iota + 1 // query issued
	Pending                    // not translated yet, registered in the translator
	Resolved                   // breakpoint set at the host address
)

func (s State) String() string {
	switch s {
	case Requested:
		return "requested"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// AddressPair a guest pc and the host address its translation starts at
type AddressPair struct {
	Guest uint64
	Host  uint64
}

// Request last observed state of a guest address
type Request struct {
	AddressPair
	State State
}

// Outcome result of one SetBreak
type Outcome struct {
	AddressPair
	Offset     uint64             // load bias added to the address given by user
	State      State              // Pending or Resolved
	Breakpoint *target.Breakpoint // set when Resolved
}

// Bridge translates guest pc breakpoints into host breakpoints. It holds no
// reference to a target, every operation gets the target explicitly.
type Bridge struct {
	opts config.Bridge
	conv callconv.Convention
	out  io.Writer

	requests map[uint64]*Request // k=guest address
}

// New creates a bridge, messages for the user are written to out
func New(opts config.Bridge, out io.Writer) (*Bridge, error) {
	conv, err := callconv.Lookup(opts.CallingConvention)
	if err != nil {
		return nil, err
	}
	return &Bridge{
		opts:     opts,
		conv:     conv,
		out:      out,
		requests: map[uint64]*Request{},
	}, nil
}

// Install adds the auto-continue breakpoint on the notify helper of t, its
// callback is bound to t.
func (b *Bridge) Install(t Target) (*target.Breakpoint, error) {
	bp, err := t.AddFunctionBreakpoint(b.opts.NotifyFunc, b.notifyCallback(t), true)
	if err != nil {
		return nil, fmt.Errorf("breakpoint on %s err: %w", b.opts.NotifyFunc, err)
	}
	logger.Info("breakpoint[%d] on %s at %#x, pending guest breakpoints resolve there", bp.ID, b.opts.NotifyFunc, bp.Addr)
	return bp, nil
}

// SetBreak sets a breakpoint on guest pc addr. When binary is not empty, addr
// is relative to binary's file layout and the load bias of its code section is
// added first.
//
// If the translator already translated the address the breakpoint is set
// right away, otherwise the address is registered as pending and the
// breakpoint is set when the notify helper reports its translation. Repeated
// requests are not deduplicated.
func (b *Bridge) SetBreak(t Target, addr uint64, binary string) (*Outcome, error) {
	offset, err := b.offset(t, binary)
	if err != nil {
		return nil, err
	}
	guest := addr + offset

	out, err := t.SymbolAddress(b.opts.OutVar)
	if err != nil {
		return nil, fmt.Errorf("locate %s err: %w", b.opts.OutVar, err)
	}
	if _, err = t.CallFunction(b.opts.QueryFunc, guest, out); err != nil {
		return nil, fmt.Errorf("call %s(%#x) err: %w", b.opts.QueryFunc, guest, err)
	}
	// only requests that reached the translator are listed
	b.record(guest, 0, Requested)

	host, err := t.ReadUint64(out)
	if err != nil {
		logger.Warn("read %s err: %v, treat as not translated", b.opts.OutVar, err)
		host = 0
	}

	if host == 0 {
		if _, err = t.CallFunction(b.opts.PendingFunc, guest); err != nil {
			return nil, fmt.Errorf("call %s(%#x) err: %w", b.opts.PendingFunc, guest, err)
		}
		b.record(guest, 0, Pending)
		fmt.Fprintln(b.out, "Not translated. Pending...")
		return &Outcome{AddressPair: AddressPair{Guest: guest}, Offset: offset, State: Pending}, nil
	}

	bp, err := t.AddBreakpoint(uintptr(host))
	if err != nil {
		return nil, fmt.Errorf("add breakpoint at %#x err: %w", host, err)
	}
	b.record(guest, host, Resolved)
	logger.Verbose("guest pc %#x translated at %#x, breakpoint[%d]", guest, host, bp.ID)

	return &Outcome{
		AddressPair: AddressPair{Guest: guest, Host: host},
		Offset:      offset,
		State:       Resolved,
		Breakpoint:  bp,
	}, nil
}

func (b *Bridge) offset(t Target, binary string) (uint64, error) {
	if binary == "" {
		return 0, nil
	}

	bias, err := t.LoadBias(binary, b.opts.TextSection)
	if err == nil {
		logger.Debug("load bias of %s %s: %#x", binary, b.opts.TextSection, bias)
		return bias, nil
	}
	if b.opts.OnMissingModule == config.FailOnMissing {
		return 0, fmt.Errorf("load bias of %s err: %w", binary, err)
	}
	logger.Warn("load bias of %s err: %v, use zero offset", binary, err)
	return 0, nil
}

// notifyCallback runs on entry of the notify helper, the translator passes
// the guest pc and the host address of its translation as first two integer
// arguments. It never stops the tracee.
func (b *Bridge) notifyCallback(t Target) target.BreakpointCallback {
	return func(regs callconv.RegisterReader, _ *target.Breakpoint) bool {
		args, err := b.conv.Decode(regs, 2)
		if err != nil {
			logger.Error("decode %s args err: %v", b.opts.NotifyFunc, err)
			return false
		}
		guest, host := args[0], args[1]

		bp, err := t.AddBreakpoint(uintptr(host))
		if err != nil {
			logger.Error("add breakpoint at %#x for guest pc %#x err: %v", host, guest, err)
			return false
		}
		b.record(guest, host, Resolved)

		fmt.Fprintf(b.out, "\nbreak by arm pc %#x at addr %#x\n", guest, host)
		logger.Verbose("breakpoint[%d] set for pending guest pc %#x", bp.ID, guest)
		return false
	}
}

func (b *Bridge) record(guest, host uint64, state State) {
	r, ok := b.requests[guest]
	if !ok {
		r = &Request{AddressPair: AddressPair{Guest: guest}}
		b.requests[guest] = r
	}
	if host != 0 {
		r.Host = host
	}
	r.State = state
}

// Requests returns the guest addresses seen so far, sorted by address
func (b *Bridge) Requests() []Request {
	reqs := make([]Request, 0, len(b.requests))
	for _, r := range b.requests {
		reqs = append(reqs, *r)
	}
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].Guest < reqs[j].Guest
	})
	return reqs
}

// ParseAddress parses a guest address, 0x prefixed hex or decimal
func ParseAddress(s string) (uint64, error) {
	return strconv.ParseUint(s, 0, 64)
}
