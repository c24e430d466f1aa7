// Package elftest writes small ELF64 little endian files for tests.
//
// The layout is fixed: ELF header, one PT_LOAD program header covering the
// whole file, then .text at TextOffset, .data, .symtab, .strtab and
// .shstrtab. ET_EXEC files are linked at ExecBase, so an x86_64 ET_EXEC built
// here can be executed by the kernel; ET_DYN files are linked at 0.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"io/ioutil"
)

const (
	ExecBase   = 0x400000
	TextOffset = 0x80

	pageSize = 0x1000
)

// Func a function symbol at Off within .text
type Func struct {
	Name string
	Off  uint64
	Size uint64
}

// Spec describes the file to build
type Spec struct {
	Machine elf.Machine
	Type    elf.Type
	Text    []byte
	Funcs   []Func
	Vars    []string // 8 bytes each, laid out in order in .data
	Entry   uint64   // offset within .text
}

// Base link address of the first byte of the file
func (s Spec) Base() uint64 {
	if s.Type == elf.ET_EXEC {
		return ExecBase
	}
	return 0
}

// TextAddr link address of .text
func (s Spec) TextAddr() uint64 {
	return s.Base() + TextOffset
}

// Bytes encodes the file
func (s Spec) Bytes() []byte {
	base := s.Base()

	buf := make([]byte, TextOffset)
	buf = append(buf, s.Text...)
	buf = align(buf, 8)

	dataOff := uint64(len(buf))
	buf = append(buf, make([]byte, 8*len(s.Vars))...)

	strtab := newStrtab()
	syms := []elf.Sym64{{}}
	for _, f := range s.Funcs {
		syms = append(syms, elf.Sym64{
			Name:  strtab.add(f.Name),
			Info:  elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC),
			Shndx: 1,
			Value: base + TextOffset + f.Off,
			Size:  f.Size,
		})
	}
	for i, v := range s.Vars {
		syms = append(syms, elf.Sym64{
			Name:  strtab.add(v),
			Info:  elf.ST_INFO(elf.STB_GLOBAL, elf.STT_OBJECT),
			Shndx: 2,
			Value: base + dataOff + uint64(i)*8,
			Size:  8,
		})
	}

	symOff := uint64(len(buf))
	buf = append(buf, encode(syms)...)
	symSize := uint64(len(buf)) - symOff

	strOff := uint64(len(buf))
	buf = append(buf, strtab.data...)

	shstrtab := newStrtab()
	shdrs := []elf.Section64{
		{},
		{
			Name:      shstrtab.add(".text"),
			Type:      uint32(elf.SHT_PROGBITS),
			Flags:     uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Addr:      base + TextOffset,
			Off:       TextOffset,
			Size:      uint64(len(s.Text)),
			Addralign: 16,
		},
		{
			Name:      shstrtab.add(".data"),
			Type:      uint32(elf.SHT_PROGBITS),
			Flags:     uint64(elf.SHF_ALLOC | elf.SHF_WRITE),
			Addr:      base + dataOff,
			Off:       dataOff,
			Size:      8 * uint64(len(s.Vars)),
			Addralign: 8,
		},
		{
			Name:      shstrtab.add(".symtab"),
			Type:      uint32(elf.SHT_SYMTAB),
			Off:       symOff,
			Size:      symSize,
			Link:      4,
			Info:      1,
			Addralign: 8,
			Entsize:   elf.Sym64Size,
		},
		{
			Name:      shstrtab.add(".strtab"),
			Type:      uint32(elf.SHT_STRTAB),
			Off:       strOff,
			Size:      uint64(len(strtab.data)),
			Addralign: 1,
		},
		{
			Name:      shstrtab.add(".shstrtab"),
			Type:      uint32(elf.SHT_STRTAB),
			Addralign: 1,
		},
	}
	shdrs[5].Off = uint64(len(buf))
	shdrs[5].Size = uint64(len(shstrtab.data))
	buf = append(buf, shstrtab.data...)
	buf = align(buf, 8)

	shoff := uint64(len(buf))
	buf = append(buf, encode(shdrs)...)

	hdr := elf.Header64{
		Type:      uint16(s.Type),
		Machine:   uint16(s.Machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     base + TextOffset + s.Entry,
		Phoff:     64,
		Shoff:     shoff,
		Ehsize:    64,
		Phentsize: 56,
		Phnum:     1,
		Shentsize: 64,
		Shnum:     uint16(len(shdrs)),
		Shstrndx:  5,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	prog := elf.Prog64{
		Type:   uint32(elf.PT_LOAD),
		Flags:  uint32(elf.PF_R | elf.PF_W | elf.PF_X),
		Off:    0,
		Vaddr:  base,
		Paddr:  base,
		Filesz: uint64(len(buf)),
		Memsz:  uint64(len(buf)),
		Align:  pageSize,
	}
	copy(buf[0:], encode(hdr))
	copy(buf[64:], encode(prog))
	return buf
}

// Write writes the file to path with mode 0755
func (s Spec) Write(path string) error {
	return ioutil.WriteFile(path, s.Bytes(), 0755)
}

type strtab struct {
	data []byte
}

func newStrtab() *strtab {
	return &strtab{data: []byte{0}}
}

func (t *strtab) add(name string) uint32 {
	off := uint32(len(t.data))
	t.data = append(t.data, name...)
	t.data = append(t.data, 0)
	return off
}

func encode(v interface{}) []byte {
	w := &bytes.Buffer{}
	if err := binary.Write(w, binary.LittleEndian, v); err != nil {
		panic(err)
	}
	return w.Bytes()
}

func align(buf []byte, n int) []byte {
	for len(buf)%n != 0 {
		buf = append(buf, 0)
	}
	return buf
}
