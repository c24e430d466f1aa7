package target

import (
	"debug/elf"
	"errors"
	"strings"
	"testing"

	"github.com/hitzhangjie/tcgdbg/internal/elftest"
	"github.com/hitzhangjie/tcgdbg/pkg/symbol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionBias(t *testing.T) {
	modules, err := parseMaps(strings.NewReader(sampleMaps))
	assert.NoError(t, err)

	// PIE linked at 0, .text in the second mapping
	text := &symbol.Section{Name: ".text", Addr: 0x2040, Offset: 0x2040, Size: 0x3000}
	bias, err := sectionBias(modules[0], text)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x555555554000), bias)

	// libc, file address differs from file offset
	text = &symbol.Section{Name: ".text", Addr: 0x23000, Offset: 0x22000}
	bias, err = sectionBias(modules[1], text)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x7ffff7de5000-0x23000), bias)

	text = &symbol.Section{Name: ".text", Addr: 0x900000, Offset: 0x900000}
	_, err = sectionBias(modules[0], text)
	assert.True(t, errors.Is(err, symbol.ErrSectionNotFound))
}

func TestLoadBiasMappedModule(t *testing.T) {
	tests := []struct {
		name string
		file string
		spec elftest.Spec
	}{
		{"aarch64 guest module", "libguest-fixture-aarch64.so", guestSpec()},
		{"x86_64 executable", "translator-fixture-x86_64", hostSpec(elf.ET_EXEC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, base := mapFixture(t, tt.spec, tt.file)
			dbp := selfProcess(t)

			mod, err := dbp.FindModule(tt.file)
			require.NoError(t, err)
			assert.Equal(t, path, mod.Path)

			// the whole file is mapped at base, .text lives at TextOffset
			bias, err := dbp.LoadBias(tt.file, ".text")
			require.NoError(t, err)
			assert.Equal(t, base+elftest.TextOffset-tt.spec.TextAddr(), bias)

			bias, err = dbp.LoadBias(path, ".text")
			require.NoError(t, err)
			assert.Equal(t, base+elftest.TextOffset-tt.spec.TextAddr(), bias)

			_, err = dbp.LoadBias(tt.file, ".no_such_section")
			assert.True(t, errors.Is(err, symbol.ErrSectionNotFound))
		})
	}
}

func TestLoadBiasModuleNotLoaded(t *testing.T) {
	dbp := selfProcess(t)

	_, err := dbp.LoadBias("libnot-loaded-fixture.so", ".text")
	assert.True(t, errors.Is(err, ErrModuleNotFound))
}

func TestSymbolAddressMappedModule(t *testing.T) {
	dbp := selfProcess(t)

	// position independent, symbols move with the module
	_, guestBase := mapFixture(t, guestSpec(), "libguest-fixture.so")
	addr, err := dbp.SymbolAddress("guest_fixture_helper")
	require.NoError(t, err)
	assert.Equal(t, guestBase+elftest.TextOffset+8, addr)

	// executables are expected at their link address
	mapFixture(t, hostSpec(elf.ET_EXEC), "translator-fixture")
	addr, err = dbp.SymbolAddress("fixture_add")
	require.NoError(t, err)
	assert.Equal(t, uint64(elftest.ExecBase+elftest.TextOffset+hostAddOff), addr)

	_, err = dbp.SymbolAddress("no_such_fixture_symbol")
	assert.True(t, errors.Is(err, symbol.ErrSymbolNotFound))
}
