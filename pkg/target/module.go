package target

import (
	"errors"
	"fmt"
	"os"

	"github.com/hitzhangjie/tcgdbg/pkg/logger"
	"github.com/hitzhangjie/tcgdbg/pkg/symbol"
)

var ErrModuleNotFound = errors.New("module not found")

// Modules 读取/proc/pid/maps，返回已加载的模块
func (t *DebuggedProcess) Modules() ([]*Module, error) {
	return readProcMaps(t.Process.Pid)
}

// FindModule 按完整路径或文件名查找已加载的模块
func (t *DebuggedProcess) FindModule(name string) (*Module, error) {
	modules, err := t.Modules()
	if err != nil {
		return nil, err
	}
	mod, ok := findModule(modules, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	return mod, nil
}

// LoadBias 计算模块name中section节的加载偏移，即节的运行时地址减去文件中记录的地址
func (t *DebuggedProcess) LoadBias(name, section string) (uint64, error) {
	mod, err := t.FindModule(name)
	if err != nil {
		return 0, err
	}
	bi, err := t.moduleInfo(mod)
	if err != nil {
		return 0, err
	}
	sec, err := bi.Section(section)
	if err != nil {
		return 0, err
	}
	return sectionBias(mod, sec)
}

// sectionBias runtime address of sec minus its file address
func sectionBias(mod *Module, sec *symbol.Section) (uint64, error) {
	load, ok := mod.FileOffsetToAddr(sec.Offset)
	if !ok {
		return 0, fmt.Errorf("%w: %s not mapped in %s", symbol.ErrSectionNotFound, sec.Name, mod.Path)
	}
	return load - sec.Addr, nil
}

// SymbolAddress 查找符号name的运行时地址，先查找可执行程序，再查找其他模块
func (t *DebuggedProcess) SymbolAddress(name string) (uint64, error) {
	modules, err := t.Modules()
	if err != nil {
		return 0, err
	}

	exe, _ := os.Readlink(fmt.Sprintf("/proc/%d/exe", t.Process.Pid))
	ordered := make([]*Module, 0, len(modules))
	for _, m := range modules {
		if m.Path == exe {
			ordered = append([]*Module{m}, ordered...)
			continue
		}
		ordered = append(ordered, m)
	}

	for _, mod := range ordered {
		bi, err := t.moduleInfo(mod)
		if err != nil {
			logger.Debug("skip module %s: %v", mod.Path, err)
			continue
		}
		sym, err := bi.LookupSymbol(name)
		if err != nil {
			continue
		}
		bias, err := t.objectBias(mod, bi)
		if err != nil {
			return 0, err
		}
		logger.Debug("symbol %s resolved in %s: %#x+%#x", name, mod.Name(), sym.Addr, bias)
		return sym.Addr + bias, nil
	}
	return 0, fmt.Errorf("%w: %s", symbol.ErrSymbolNotFound, name)
}

// objectBias every segment of an ELF object is loaded with the same bias,
// non-PIE executables are loaded at their link addresses.
func (t *DebuggedProcess) objectBias(mod *Module, bi *symbol.BinaryInfo) (uint64, error) {
	if !bi.IsPIE() {
		return 0, nil
	}
	text, err := bi.Section(".text")
	if err != nil {
		return 0, err
	}
	return sectionBias(mod, text)
}

func (t *DebuggedProcess) moduleInfo(mod *Module) (*symbol.BinaryInfo, error) {
	if bi, ok := t.modules[mod.Path]; ok {
		return bi, nil
	}

	var (
		bi  *symbol.BinaryInfo
		err error
	)
	exe, _ := os.Readlink(fmt.Sprintf("/proc/%d/exe", t.Process.Pid))
	if mod.Path == exe && t.BInfo != nil {
		bi = t.BInfo
	} else if bi, err = symbol.Analyze(mod.Path); err != nil {
		return nil, err
	}
	t.modules[mod.Path] = bi
	return bi, nil
}
