// Package callconv decodes the integer arguments of a trapped native call.
//
// When a breakpoint sits on the first instruction of a function, the callee
// has not touched its argument registers yet, so the arguments can be read
// straight from the register file according to the calling convention.
package callconv

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTooManyArgs       = errors.New("too many integer arguments for register passing")
	ErrUnknownConvention = errors.New("unknown calling convention")
)

// RegisterReader reads a general purpose register by its lowercase name
type RegisterReader interface {
	Register(name string) (uint64, error)
}

// RegisterWriter writes a general purpose register by its lowercase name
type RegisterWriter interface {
	SetRegister(name string, value uint64) error
}

// Convention describes how integer arguments are passed in registers
type Convention struct {
	Name    string
	IntArgs []string // registers carrying integer arguments, in order
	Return  string   // register carrying the integer return value
}

var (
	// SysVAMD64 System V AMD64 ABI, used by the x86_64 host
	SysVAMD64 = Convention{
		Name:    "sysv-amd64",
		IntArgs: []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"},
		Return:  "rax",
	}

	// AAPCS64 Procedure Call Standard for the Arm 64-bit Architecture
	AAPCS64 = Convention{
		Name:    "aapcs64",
		IntArgs: []string{"x0", "x1", "x2", "x3", "x4", "x5", "x6", "x7"},
		Return:  "x0",
	}
)

var conventions = map[string]Convention{
	SysVAMD64.Name: SysVAMD64,
	AAPCS64.Name:   AAPCS64,
}

// Lookup returns the convention registered under name
func Lookup(name string) (Convention, error) {
	c, ok := conventions[strings.ToLower(name)]
	if !ok {
		return Convention{}, fmt.Errorf("%w: %s", ErrUnknownConvention, name)
	}
	return c, nil
}

// Decode reads the first n integer arguments of the trapped call
func (c Convention) Decode(regs RegisterReader, n int) ([]uint64, error) {
	if n > len(c.IntArgs) {
		return nil, fmt.Errorf("%w: %s passes %d, want %d", ErrTooManyArgs, c.Name, len(c.IntArgs), n)
	}

	args := make([]uint64, n)
	for i := 0; i < n; i++ {
		v, err := regs.Register(c.IntArgs[i])
		if err != nil {
			return nil, fmt.Errorf("read arg %d (%s): %w", i, c.IntArgs[i], err)
		}
		args[i] = v
	}
	return args, nil
}

// Encode places args into the argument registers before an injected call
func (c Convention) Encode(regs RegisterWriter, args ...uint64) error {
	if len(args) > len(c.IntArgs) {
		return fmt.Errorf("%w: %s passes %d, got %d", ErrTooManyArgs, c.Name, len(c.IntArgs), len(args))
	}

	for i, v := range args {
		if err := regs.SetRegister(c.IntArgs[i], v); err != nil {
			return fmt.Errorf("write arg %d (%s): %w", i, c.IntArgs[i], err)
		}
	}
	return nil
}

// ReturnValue reads the integer return value after the call returned
func (c Convention) ReturnValue(regs RegisterReader) (uint64, error) {
	return regs.Register(c.Return)
}
