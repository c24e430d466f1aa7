package target

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// readProcComm read /proc/pid/comm or /proc/pid/stat to load the command line of process.
func readProcComm(pid int) (string, error) {
	comm, err := ioutil.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err == nil {
		// removes newline character
		comm = bytes.TrimSuffix(comm, []byte("\n"))
	}

	if len(comm) == 0 {
		stat, err := ioutil.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
		if err != nil {
			return "", fmt.Errorf("could not read proc stat: %v", err)
		}
		expr := fmt.Sprintf("%d\\s*\\((.*)\\)", pid)
		rexp, err := regexp.Compile(expr)
		if err != nil {
			return "", fmt.Errorf("regexp compile error: %v", err)
		}
		match := rexp.FindSubmatch(stat)
		if match == nil {
			return "", fmt.Errorf("no match found using regexp '%s' in /proc/%d/stat", expr, pid)
		}
		comm = match[1]
	}

	return string(comm), nil
}

// readProcCommArgs read /proc/pid/cmdline to load the command arguments of process
func readProcCommArgs(pid int) ([]string, error) {
	dat, err := ioutil.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil {
		return nil, err
	}
	dat = bytes.TrimSuffix(dat, []byte{0})
	args := strings.Split(string(dat), string([]byte{0}))[1:]
	return args, nil
}

// Mapping one line of /proc/pid/maps
type Mapping struct {
	Start  uint64
	End    uint64
	Perms  string
	Offset uint64
	Path   string
}

// Module a file mapped into the address space, like the executable or a
// shared library
type Module struct {
	Path     string
	Mappings []Mapping
}

// Name base name of the module file
func (m *Module) Name() string {
	return filepath.Base(m.Path)
}

// FileOffsetToAddr returns the runtime address where file offset `off` is mapped
func (m *Module) FileOffsetToAddr(off uint64) (uint64, bool) {
	for _, mp := range m.Mappings {
		if off >= mp.Offset && off < mp.Offset+(mp.End-mp.Start) {
			return mp.Start + (off - mp.Offset), true
		}
	}
	return 0, false
}

// parseMaps parse the content of /proc/pid/maps, only file backed mappings
// are grouped into modules, in the order they first appear.
func parseMaps(r io.Reader) ([]*Module, error) {
	var (
		modules []*Module
		byPath  = map[string]*Module{}
		sc      = bufio.NewScanner(r)
	)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		// address perms offset dev inode pathname
		fields := strings.Fields(line)
		if len(fields) < 5 {
			return nil, fmt.Errorf("invalid maps line: %q", line)
		}
		if len(fields) < 6 || !strings.HasPrefix(fields[5], "/") {
			continue // anonymous, [heap], [stack], [vdso] ...
		}

		rng := strings.SplitN(fields[0], "-", 2)
		if len(rng) != 2 {
			return nil, fmt.Errorf("invalid maps range: %q", fields[0])
		}
		start, err := strconv.ParseUint(rng[0], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid maps start: %v", err)
		}
		end, err := strconv.ParseUint(rng[1], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid maps end: %v", err)
		}
		off, err := strconv.ParseUint(fields[2], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid maps offset: %v", err)
		}

		// pathname may contain spaces, or end with " (deleted)"
		path := strings.Join(fields[5:], " ")

		mod, ok := byPath[path]
		if !ok {
			mod = &Module{Path: path}
			byPath[path] = mod
			modules = append(modules, mod)
		}
		mod.Mappings = append(mod.Mappings, Mapping{
			Start:  start,
			End:    end,
			Perms:  fields[1],
			Offset: off,
			Path:   path,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return modules, nil
}

// readProcMaps read /proc/pid/maps to load the modules of process
func readProcMaps(pid int) ([]*Module, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseMaps(f)
}

// findModule match by full path first, then by base name
func findModule(modules []*Module, name string) (*Module, bool) {
	for _, m := range modules {
		if m.Path == name {
			return m, true
		}
	}
	base := filepath.Base(name)
	for _, m := range modules {
		if m.Name() == base {
			return m, true
		}
	}
	return nil, false
}
