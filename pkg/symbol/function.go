package symbol

// SymbolKind kind of symbol
type SymbolKind int

const (
	KindFunction SymbolKind = iota + 1
	KindVariable
)

func (k SymbolKind) String() string {
	switch k {
	case KindFunction:
		return "func"
	case KindVariable:
		return "var"
	default:
		return "unknown"
	}
}

// Symbol an ELF symbol, Addr is the link time address
type Symbol struct {
	Name string
	Addr uint64
	Size uint64
	Kind SymbolKind
}

// Function function
type Function struct {
	name   string
	lowpc  uint64
	highpc uint64
	sym    *Symbol
}

func newFunction(sym *Symbol) *Function {
	highpc := sym.Addr + sym.Size
	if sym.Size == 0 {
		highpc = sym.Addr + 1
	}
	return &Function{
		name:   sym.Name,
		lowpc:  sym.Addr,
		highpc: highpc,
		sym:    sym,
	}
}

func (f *Function) Name() string {
	return f.name
}

// Entry file address of the first instruction
func (f *Function) Entry() uint64 {
	return f.lowpc
}

func (f *Function) Symbol() *Symbol {
	return f.sym
}

// Variable global or thread local variable
type Variable struct {
	sym *Symbol
}

func (v *Variable) Name() string {
	return v.sym.Name
}

func (v *Variable) Symbol() *Symbol {
	return v.sym
}
