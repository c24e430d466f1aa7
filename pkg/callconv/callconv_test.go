package callconv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type regFile map[string]uint64

func (r regFile) Register(name string) (uint64, error) {
	v, ok := r[name]
	if !ok {
		return 0, errors.New("no such register: " + name)
	}
	return v, nil
}

func (r regFile) SetRegister(name string, value uint64) error {
	r[name] = value
	return nil
}

func TestDecodeSysV(t *testing.T) {
	regs := regFile{"rdi": 0x1000, "rsi": 0x7f0000001000, "rdx": 3}

	args, err := SysVAMD64.Decode(regs, 2)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{0x1000, 0x7f0000001000}, args)
}

func TestDecodeAAPCS64(t *testing.T) {
	regs := regFile{"x0": 1, "x1": 2, "x2": 3}

	args, err := AAPCS64.Decode(regs, 3)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, args)
}

func TestDecodeTooMany(t *testing.T) {
	_, err := SysVAMD64.Decode(regFile{}, 7)
	assert.True(t, errors.Is(err, ErrTooManyArgs))
}

func TestDecodeMissingRegister(t *testing.T) {
	_, err := SysVAMD64.Decode(regFile{"rdi": 1}, 2)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rsi")
}

func TestEncodeAndReturn(t *testing.T) {
	regs := regFile{}
	assert.NoError(t, SysVAMD64.Encode(regs, 10, 20, 30))
	assert.Equal(t, uint64(10), regs["rdi"])
	assert.Equal(t, uint64(20), regs["rsi"])
	assert.Equal(t, uint64(30), regs["rdx"])

	regs["rax"] = 42
	v, err := SysVAMD64.ReturnValue(regs)
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	err = SysVAMD64.Encode(regs, 1, 2, 3, 4, 5, 6, 7)
	assert.True(t, errors.Is(err, ErrTooManyArgs))
}

func TestLookup(t *testing.T) {
	c, err := Lookup("SYSV-AMD64")
	assert.NoError(t, err)
	assert.Equal(t, SysVAMD64.Name, c.Name)

	_, err = Lookup("ms-x64")
	assert.True(t, errors.Is(err, ErrUnknownConvention))
}
