package target

import (
	"errors"
	"syscall"
	"testing"

	"github.com/hitzhangjie/tcgdbg/pkg/callconv"
	"github.com/stretchr/testify/assert"
)

func TestRegistersReadWrite(t *testing.T) {
	raw := &syscall.PtraceRegs{Rdi: 0x1000, Rsi: 0x7f0000001000, Rip: 0x401000}
	regs := NewRegisters(raw)

	v, err := regs.Register("rdi")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x1000), v)

	v, err = regs.Register("PC")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x401000), v)

	assert.NoError(t, regs.SetRegister("sp", 0x7ffe0000))
	assert.Equal(t, uint64(0x7ffe0000), raw.Rsp)

	assert.NoError(t, regs.SetRegister("orig_rax", 7))
	assert.Equal(t, uint64(7), raw.Orig_rax)

	_, err = regs.Register("x0")
	assert.True(t, errors.Is(err, ErrUnknownRegister))
	assert.True(t, errors.Is(regs.SetRegister("x0", 1), ErrUnknownRegister))
}

func TestRegistersWithConvention(t *testing.T) {
	raw := &syscall.PtraceRegs{}
	regs := NewRegisters(raw)

	assert.NoError(t, callconv.SysVAMD64.Encode(regs, 11, 22))
	assert.Equal(t, uint64(11), raw.Rdi)
	assert.Equal(t, uint64(22), raw.Rsi)

	args, err := callconv.SysVAMD64.Decode(regs, 2)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{11, 22}, args)
}

func TestRegistersNames(t *testing.T) {
	names := NewRegisters(&syscall.PtraceRegs{}).Names()
	assert.Contains(t, names, "rip")
	assert.Contains(t, names, "rsp")
	assert.Contains(t, names, "eflags")
}

func TestBreakpointsOnHit(t *testing.T) {
	regs := NewRegisters(&syscall.PtraceRegs{Rdi: 1, Rsi: 2})

	var got []uint64
	notify := newBreakPoint(0x1000, "notify")
	notify.AutoContinue = true
	notify.Callback = func(r callconv.RegisterReader, bp *Breakpoint) bool {
		args, _ := callconv.SysVAMD64.Decode(r, 2)
		got = args
		return true
	}

	assert.False(t, Breakpoints{notify}.onHit(regs), "auto continue never stops")
	assert.Equal(t, []uint64{1, 2}, got)
	assert.Equal(t, uint64(1), notify.Hits)

	plain := newBreakPoint(0x1000, "")
	assert.True(t, Breakpoints{notify, plain}.onHit(regs))

	plain.Enabled = false
	assert.False(t, Breakpoints{plain}.onHit(regs))
	assert.True(t, plain.ID > notify.ID)
}
