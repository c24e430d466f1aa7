package target

import (
	"debug/elf"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"unsafe"

	"github.com/hitzhangjie/tcgdbg/internal/elftest"
	"github.com/stretchr/testify/require"
)

// translator stand-in, x86_64 static executable:
//
//	_start:      mov edi, 1; mov esi, 2; call fixture_add
//	fixture_loop: jmp fixture_loop
//	fixture_add: lea rax, [rdi+rsi]; ret
var hostText = []byte{
	0xbf, 0x01, 0x00, 0x00, 0x00, // mov edi, 1
	0xbe, 0x02, 0x00, 0x00, 0x00, // mov esi, 2
	0xe8, 0x09, 0x00, 0x00, 0x00, // call fixture_add
	0xeb, 0xfe, // jmp .
	0x90, 0x90, 0x90, 0x90, 0x90, 0x90, 0x90,
	0x48, 0x8d, 0x04, 0x37, // lea rax, [rdi+rsi]
	0xc3, // ret
	0x90, 0x90, 0x90,
}

const (
	hostLoopOff = 15
	hostAddOff  = 24
)

func hostSpec(typ elf.Type) elftest.Spec {
	return elftest.Spec{
		Machine: elf.EM_X86_64,
		Type:    typ,
		Text:    hostText,
		Funcs: []elftest.Func{
			{Name: "_start", Off: 0, Size: hostLoopOff},
			{Name: "fixture_loop", Off: hostLoopOff, Size: 2},
			{Name: "fixture_add", Off: hostAddOff, Size: 5},
		},
		Vars: []string{"dbg_out"},
	}
}

// guest module, arm64: nop; ret; nop; ret
func guestSpec() elftest.Spec {
	return elftest.Spec{
		Machine: elf.EM_AARCH64,
		Type:    elf.ET_DYN,
		Text: []byte{
			0x1f, 0x20, 0x03, 0xd5, 0xc0, 0x03, 0x5f, 0xd6,
			0x1f, 0x20, 0x03, 0xd5, 0xc0, 0x03, 0x5f, 0xd6,
		},
		Funcs: []elftest.Func{
			{Name: "guest_fixture_main", Off: 0, Size: 8},
			{Name: "guest_fixture_helper", Off: 8, Size: 8},
		},
	}
}

// mapFixture writes spec to dir/name and maps it into the test process the
// way the loader maps a module, returns the path and the mapped address
func mapFixture(t *testing.T, spec elftest.Spec, name string) (string, uint64) {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, spec.Write(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	fi, err := f.Stat()
	require.NoError(t, err)

	data, err := syscall.Mmap(int(f.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_PRIVATE)
	require.NoError(t, err)
	t.Cleanup(func() { syscall.Munmap(data) })

	return path, uint64(uintptr(unsafe.Pointer(&data[0])))
}

// selfProcess a DebuggedProcess over the test process itself, good for
// anything that only reads /proc
func selfProcess(t *testing.T) *DebuggedProcess {
	p, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)

	dbp := newDebuggedProcess("", nil, ATTACH)
	dbp.Process = p
	return dbp
}

// launchFixture starts the x86_64 fixture under ptrace, stopped before its
// first instruction
func launchFixture(t *testing.T) *DebuggedProcess {
	path := filepath.Join(t.TempDir(), "translator")
	require.NoError(t, hostSpec(elf.ET_EXEC).Write(path))

	dbp, err := NewDebuggedProcess(path, nil)
	if err != nil {
		t.Skipf("cannot trace %s: %v", path, err)
	}
	t.Cleanup(func() {
		pid := dbp.Process.Pid
		dbp.ExecPtrace(func() {
			var ws syscall.WaitStatus
			syscall.Kill(pid, syscall.SIGKILL)
			syscall.Wait4(pid, &ws, syscall.WALL, nil)
		})
		dbp.StopPtrace()
	})
	return dbp
}
