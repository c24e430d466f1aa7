package debug

import (
	"errors"
	"fmt"

	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear -n <breakpoint no.>",
	Short: "清除指定编号的断点",
	Long:  `清除指定编号的断点`,
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmd.Flags().GetUint64("n")
		if err != nil {
			return err
		}

		// 移除断点
		brk, err := target.DBPProcess.ClearBreakpoint(id)
		if errors.Is(err, target.ErrBreakpointNotExisted) {
			return errors.New("断点不存在")
		}
		if err != nil {
			return err
		}
		fmt.Printf("移除断点成功: breakpoint[%d] addr:%#x\n", brk.ID, brk.Addr)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(clearCmd)
	clearCmd.Flags().Uint64P("n", "n", 1, "断点编号")
}
