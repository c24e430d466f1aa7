package target

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"syscall"
)

var ErrUnknownRegister = errors.New("unknown register")

var regAliases = map[string]string{
	"pc": "rip",
	"sp": "rsp",
	"fp": "rbp",
}

// Registers named view over the ptrace register set of one thread, it
// satisfies callconv.RegisterReader and callconv.RegisterWriter.
type Registers struct {
	regs *syscall.PtraceRegs
}

// NewRegisters wraps regs, modifications are made to regs in place
func NewRegisters(regs *syscall.PtraceRegs) *Registers {
	return &Registers{regs: regs}
}

// Raw returns the wrapped register set
func (r *Registers) Raw() *syscall.PtraceRegs {
	return r.regs
}

func (r *Registers) field(name string) (reflect.Value, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if v, ok := regAliases[name]; ok {
		name = v
	}

	rv := reflect.ValueOf(r.regs).Elem()
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		if strings.ToLower(rt.Field(i).Name) == name {
			return rv.Field(i), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnknownRegister, name)
}

// Register reads register `name`
func (r *Registers) Register(name string) (uint64, error) {
	f, err := r.field(name)
	if err != nil {
		return 0, err
	}
	return f.Uint(), nil
}

// SetRegister writes register `name`
func (r *Registers) SetRegister(name string, value uint64) error {
	f, err := r.field(name)
	if err != nil {
		return err
	}
	f.SetUint(value)
	return nil
}

// Names returns register names in ptrace order
func (r *Registers) Names() []string {
	rt := reflect.TypeOf(*r.regs)
	names := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		names = append(names, strings.ToLower(rt.Field(i).Name))
	}
	return names
}
