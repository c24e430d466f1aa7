package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuestRegister(t *testing.T) {
	tr := newFakeTranslator()
	tr.guest["print_x0"] = 0x41
	tr.guest["print_pc"] = 0x400080

	v, err := GuestRegister(tr, "X0")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x41), v)

	v, err = GuestRegister(tr, "pc")
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x400080), v)

	_, err = GuestRegister(tr, "x32")
	assert.Error(t, err)
	_, err = GuestRegister(tr, "rax")
	assert.Error(t, err)
}

func TestProfiler(t *testing.T) {
	tr := newFakeTranslator()
	p := NewProfiler(tr)

	assert.NoError(t, p.Start())
	assert.Equal(t, []byte{1}, tr.mem[0x602000])
	assert.NoError(t, p.Stop())
	assert.Equal(t, []byte{0}, tr.mem[0x602000])

	assert.NoError(t, p.TraceHostCalls(true))
	assert.Equal(t, []byte{1}, tr.mem[0x602008])

	assert.NoError(t, p.DumpPCs())
	assert.NoError(t, p.DumpCallstacks())
	assert.NoError(t, p.Clear())

	var names []string
	for _, c := range tr.calls {
		names = append(names, c.name)
	}
	assert.Equal(t, []string{"print_pc_cnt", "print_callstack", "clear_pc_cnt", "clear_callstack"}, names)
}

func TestProfilerMissingFlag(t *testing.T) {
	tr := newFakeTranslator()
	delete(tr.symbols, "dbg_record")
	assert.Error(t, NewProfiler(tr).Start())
}
