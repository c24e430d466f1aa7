package target

import (
	"github.com/hitzhangjie/tcgdbg/pkg/callconv"
	"go.uber.org/atomic"
)

var (
	bpSeqNo = atomic.NewUint64(0)
)

// BreakpointCallback runs when a thread traps on the breakpoint, with the
// registers of that thread. Returning false lets the thread run on.
type BreakpointCallback func(regs callconv.RegisterReader, bp *Breakpoint) (stop bool)

// Breakpoint 断点信息
type Breakpoint struct {
	ID           uint64             // 断点编号
	Addr         uintptr            // 断点地址
	Pos          string             // 位置描述，如函数名
	Enabled      bool               // 断点是否启用
	AutoContinue bool               // 命中后不停下，执行完回调继续运行
	Callback     BreakpointCallback // 命中回调
	Hits         uint64             // 命中次数
}

// 在指令地址addr处创建一个断点，位置描述为location
func newBreakPoint(addr uintptr, location string) *Breakpoint {
	return &Breakpoint{
		ID:      bpSeqNo.Add(1),
		Addr:    addr,
		Pos:     location,
		Enabled: true,
	}
}

// Breakpoints 所有的断点信息
type Breakpoints []*Breakpoint

// Len 返回长度
func (b Breakpoints) Len() int {
	return len(b)
}

// Less 检查b[i]是否小于b[j]
func (b Breakpoints) Less(i, j int) bool {
	return b[i].ID < b[j].ID
}

// Swap 交换b[i]和b[j]
func (b Breakpoints) Swap(i, j int) {
	b[i], b[j] = b[j], b[i]
}

// onHit runs the callbacks of the breakpoints sharing one address and tells
// whether the thread should stop there.
func (b Breakpoints) onHit(regs callconv.RegisterReader) bool {
	stop := false
	for _, bp := range b {
		if !bp.Enabled {
			continue
		}
		bp.Hits++

		wantStop := !bp.AutoContinue
		if bp.Callback != nil {
			wantStop = bp.Callback(regs, bp) && !bp.AutoContinue
		}
		stop = stop || wantStop
	}
	return stop
}
