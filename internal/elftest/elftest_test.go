package elftest

import (
	"bytes"
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesParse(t *testing.T) {
	spec := Spec{
		Machine: elf.EM_AARCH64,
		Type:    elf.ET_EXEC,
		Text:    []byte{0x1f, 0x20, 0x03, 0xd5, 0xc0, 0x03, 0x5f, 0xd6},
		Funcs:   []Func{{Name: "entry", Off: 0, Size: 8}},
		Vars:    []string{"counter", "flag"},
		Entry:   4,
	}
	data := spec.Bytes()

	f, err := elf.NewFile(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, elf.EM_AARCH64, f.Machine)
	assert.Equal(t, elf.ET_EXEC, f.Type)
	assert.Equal(t, uint64(ExecBase+TextOffset+4), f.Entry)

	if assert.Len(t, f.Progs, 1) {
		p := f.Progs[0]
		assert.Equal(t, elf.PT_LOAD, p.Type)
		assert.Equal(t, uint64(ExecBase), p.Vaddr)
		assert.Equal(t, uint64(len(data)), p.Filesz)
	}

	text := f.Section(".text")
	require.NotNil(t, text)
	b, err := text.Data()
	require.NoError(t, err)
	assert.Equal(t, spec.Text, b)

	syms, err := f.Symbols()
	require.NoError(t, err)
	names := map[string]uint64{}
	for _, s := range syms {
		names[s.Name] = s.Value
	}
	assert.Equal(t, spec.TextAddr(), names["entry"])
	assert.Equal(t, f.Section(".data").Addr+8, names["flag"])
}
