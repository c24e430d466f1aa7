package symbol

import (
	"debug/elf"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrSymbolNotFound     = errors.New("symbol not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrUnsupportedMachine = errors.New("unsupported machine")
)

// Section section header info needed to relocate the section at runtime
type Section struct {
	Name   string
	Addr   uint64 // file (link time) virtual address
	Offset uint64 // offset in file
	Size   uint64
}

// BinaryInfo binary info
type BinaryInfo struct {
	Path      string
	Type      elf.Type
	Machine   elf.Machine
	Entry     uint64 // file address of the entry point
	Sections  []*Section
	Functions []*Function // sorted by address
	Variables []*Variable

	symbols map[string]*Symbol
}

// Analyze Analyze executable `execFile` and return the binary info
//
// Only section headers and symbol tables are read, so any architecture works,
// for example the arm64 guest modules loaded by the translator.
func Analyze(execFile string) (*BinaryInfo, error) {

	file, err := elf.Open(execFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	bi := &BinaryInfo{
		Path:    execFile,
		Type:    file.Type,
		Machine: file.Machine,
		Entry:   file.Entry,
		symbols: map[string]*Symbol{},
	}

	for _, s := range file.Sections {
		bi.Sections = append(bi.Sections, &Section{
			Name:   s.Name,
			Addr:   s.Addr,
			Offset: s.Offset,
			Size:   s.Size,
		})
	}

	// .symtab first, .dynsym still works for stripped libraries
	if err = bi.parseSymbols(file.Symbols); err != nil && err != elf.ErrNoSymbols {
		return nil, err
	}
	if err = bi.parseSymbols(file.DynamicSymbols); err != nil && err != elf.ErrNoSymbols {
		return nil, err
	}

	sort.Slice(bi.Functions, func(i, j int) bool {
		return bi.Functions[i].lowpc < bi.Functions[j].lowpc
	})
	return bi, nil
}

func (bi *BinaryInfo) parseSymbols(load func() ([]elf.Symbol, error)) error {
	syms, err := load()
	if err != nil {
		return err
	}

	for _, s := range syms {
		if s.Name == "" || s.Value == 0 || s.Section == elf.SHN_UNDEF {
			continue
		}
		if _, ok := bi.symbols[s.Name]; ok {
			continue
		}

		sym := &Symbol{Name: s.Name, Addr: s.Value, Size: s.Size}
		switch elf.ST_TYPE(s.Info) {
		case elf.STT_FUNC:
			sym.Kind = KindFunction
			bi.Functions = append(bi.Functions, newFunction(sym))
		case elf.STT_OBJECT:
			sym.Kind = KindVariable
			bi.Variables = append(bi.Variables, &Variable{sym: sym})
		default:
			continue
		}
		bi.symbols[s.Name] = sym
	}
	return nil
}

// CheckMachine returns ErrUnsupportedMachine unless the binary is built for m
func (bi *BinaryInfo) CheckMachine(m elf.Machine) error {
	if bi.Machine != m {
		return fmt.Errorf("%w: %s is %v, want %v", ErrUnsupportedMachine, bi.Path, bi.Machine, m)
	}
	return nil
}

// IsPIE whether the binary is position independent, thus loaded with a bias
func (bi *BinaryInfo) IsPIE() bool {
	return bi.Type == elf.ET_DYN
}

// Section returns the section named `name`
func (bi *BinaryInfo) Section(name string) (*Section, error) {
	for _, s := range bi.Sections {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrSectionNotFound, name, bi.Path)
}

// LookupSymbol returns function or variable symbol `name`
func (bi *BinaryInfo) LookupSymbol(name string) (*Symbol, error) {
	sym, ok := bi.symbols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, name, bi.Path)
	}
	return sym, nil
}

// PCToFunction returns the function whose range covers PC, pc is a file address
func (bi *BinaryInfo) PCToFunction(pc uint64) (*Function, error) {
	idx := sort.Search(len(bi.Functions), func(i int) bool {
		return bi.Functions[i].lowpc > pc
	})
	if idx == 0 {
		return nil, fmt.Errorf("%w: pc %#x", ErrSymbolNotFound, pc)
	}
	f := bi.Functions[idx-1]
	if pc >= f.highpc {
		return nil, fmt.Errorf("%w: pc %#x", ErrSymbolNotFound, pc)
	}
	return f, nil
}
