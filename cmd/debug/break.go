package debug

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var breakCmd = &cobra.Command{
	Use:   "break <locspec>",
	Short: "在host指令地址处添加断点",
	Long: `在host指令地址处添加断点，位置可以通过locspec格式指定。

当前支持的locspec格式，包括两种:
- 指令地址
- 函数名`,
	Aliases: []string{"b", "breakpoint"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {

		if len(args) != 1 {
			return errors.New("参数错误")
		}

		locStr := args[0]

		// try parse as address, then as function name
		addr, err := parseAddress(locStr)
		if err != nil {
			addr, err = target.DBPProcess.SymbolAddress(locStr)
			if err != nil {
				return fmt.Errorf("invalid loc: %s, %v", locStr, err)
			}
		}

		// target add breakpoint
		brk, err := target.DBPProcess.AddBreakpointWithCallback(uintptr(addr), locStr, nil, false)
		if err != nil {
			return err
		}
		fmt.Printf("breakpoint[%d] addr:%#x, loc:%s\n", brk.ID, brk.Addr, brk.Pos)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(breakCmd)
}

func parseAddress(locStr string) (uint64, error) {
	v, err := strconv.ParseUint(locStr, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid locspec: %v", err)
	}
	return v, nil
}
