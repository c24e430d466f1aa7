package bridge

import (
	"fmt"
	"strconv"
	"strings"
)

var guestRegNames = map[string]bool{
	"pc":  true,
	"lr":  true,
	"sp":  true,
	"env": true,
}

func init() {
	for i := 0; i < 32; i++ {
		guestRegNames["x"+strconv.Itoa(i)] = true
	}
}

// GuestRegister reads a register of the emulated cpu of the current thread
// through the translator helper print_<name>. "env" is the address of the
// cpu state.
func GuestRegister(t Target, name string) (uint64, error) {
	name = strings.ToLower(name)
	if !guestRegNames[name] {
		return 0, fmt.Errorf("invalid guest register: %s", name)
	}
	return t.CallFunction("print_" + name)
}

// Profiler controls the counter based profiler of the translator. Reports
// are printed by the tracee on its stderr.
type Profiler struct {
	t Target
}

func NewProfiler(t Target) *Profiler {
	return &Profiler{t: t}
}

// Start starts recording pc and callstack counters
func (p *Profiler) Start() error {
	return p.setFlag("dbg_record", true)
}

// Stop stops recording, the counters are kept
func (p *Profiler) Stop() error {
	return p.setFlag("dbg_record", false)
}

// DumpPCs prints counters per guest pc
func (p *Profiler) DumpPCs() error {
	_, err := p.t.CallFunction("print_pc_cnt")
	return err
}

// DumpCallstacks prints counters per callstack
func (p *Profiler) DumpCallstacks() error {
	_, err := p.t.CallFunction("print_callstack")
	return err
}

// Clear drops all counters
func (p *Profiler) Clear() error {
	if _, err := p.t.CallFunction("clear_pc_cnt"); err != nil {
		return err
	}
	_, err := p.t.CallFunction("clear_callstack")
	return err
}

// TraceHostCalls toggles printing of host library calls made by the guest
func (p *Profiler) TraceHostCalls(on bool) error {
	return p.setFlag("dbg_print_x64_on", on)
}

func (p *Profiler) setFlag(name string, on bool) error {
	addr, err := p.t.SymbolAddress(name)
	if err != nil {
		return err
	}
	v := byte(0)
	if on {
		v = 1
	}
	if err = p.t.WriteMemory(uintptr(addr), []byte{v}); err != nil {
		return fmt.Errorf("write %s err: %v", name, err)
	}
	return nil
}
