package symbol

import (
	"debug/elf"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hitzhangjie/tcgdbg/internal/elftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arm64: nop; ret; nop; ret
var arm64Text = []byte{
	0x1f, 0x20, 0x03, 0xd5, 0xc0, 0x03, 0x5f, 0xd6,
	0x1f, 0x20, 0x03, 0xd5, 0xc0, 0x03, 0x5f, 0xd6,
}

func writeFixture(t *testing.T, name string, spec elftest.Spec) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, spec.Write(path))
	return path
}

func guestSpec() elftest.Spec {
	return elftest.Spec{
		Machine: elf.EM_AARCH64,
		Type:    elf.ET_DYN,
		Text:    arm64Text,
		Funcs: []elftest.Func{
			{Name: "guest_main", Off: 0, Size: 8},
			{Name: "guest_helper", Off: 8, Size: 8},
		},
		Vars: []string{"guest_counter"},
	}
}

func TestAnalyzeMachines(t *testing.T) {
	tests := []struct {
		name    string
		machine elf.Machine
		typ     elf.Type
		pie     bool
	}{
		{"aarch64 shared object", elf.EM_AARCH64, elf.ET_DYN, true},
		{"x86_64 executable", elf.EM_X86_64, elf.ET_EXEC, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := guestSpec()
			spec.Machine = tt.machine
			spec.Type = tt.typ
			spec.Entry = 8

			bi, err := Analyze(writeFixture(t, "guest", spec))
			require.NoError(t, err)
			assert.Equal(t, tt.machine, bi.Machine)
			assert.Equal(t, tt.pie, bi.IsPIE())
			assert.Equal(t, spec.TextAddr()+8, bi.Entry)

			text, err := bi.Section(".text")
			require.NoError(t, err)
			assert.Equal(t, spec.TextAddr(), text.Addr)
			assert.Equal(t, uint64(elftest.TextOffset), text.Offset)
			assert.Equal(t, uint64(len(arm64Text)), text.Size)

			_, err = bi.Section(".no_such_section")
			assert.True(t, errors.Is(err, ErrSectionNotFound))
		})
	}
}

func TestCheckMachine(t *testing.T) {
	bi, err := Analyze(writeFixture(t, "guest", guestSpec()))
	require.NoError(t, err)

	assert.NoError(t, bi.CheckMachine(elf.EM_AARCH64))
	err = bi.CheckMachine(elf.EM_X86_64)
	assert.True(t, errors.Is(err, ErrUnsupportedMachine))
}

func TestLookupSymbol(t *testing.T) {
	spec := guestSpec()
	bi, err := Analyze(writeFixture(t, "guest", spec))
	require.NoError(t, err)

	sym, err := bi.LookupSymbol("guest_helper")
	require.NoError(t, err)
	assert.Equal(t, KindFunction, sym.Kind)
	assert.Equal(t, spec.TextAddr()+8, sym.Addr)
	assert.Equal(t, uint64(8), sym.Size)

	fn, err := bi.PCToFunction(sym.Addr + 4)
	require.NoError(t, err)
	assert.Equal(t, "guest_helper", fn.Name())
	assert.Equal(t, sym.Addr, fn.Entry())

	fn, err = bi.PCToFunction(spec.TextAddr())
	require.NoError(t, err)
	assert.Equal(t, "guest_main", fn.Name())

	v, err := bi.LookupSymbol("guest_counter")
	require.NoError(t, err)
	assert.Equal(t, KindVariable, v.Kind)
	if assert.Len(t, bi.Variables, 1) {
		assert.Equal(t, "guest_counter", bi.Variables[0].Name())
	}

	_, err = bi.LookupSymbol("dbg_no_such_helper")
	assert.True(t, errors.Is(err, ErrSymbolNotFound))

	_, err = bi.PCToFunction(0)
	assert.True(t, errors.Is(err, ErrSymbolNotFound))

	_, err = bi.PCToFunction(spec.TextAddr() + 16)
	assert.True(t, errors.Is(err, ErrSymbolNotFound))
}
