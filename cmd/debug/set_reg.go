package debug

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var setRegCmd = &cobra.Command{
	Use:   "setreg <reg> <value>",
	Short: "设置寄存器值",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 检查参数数量
		if len(args) != 2 {
			return errors.New("usage: setreg <reg> <value>")
		}

		// 检查是否有调试进程
		if target.DBPProcess == nil {
			return errors.New("please attach to a process first")
		}

		regName := args[0]
		valueStr := args[1]

		// 解析值参数
		value, err := strconv.ParseUint(valueStr, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid value format: %s", valueStr)
		}

		// 读取当前寄存器状态
		regs, err := target.DBPProcess.Registers()
		if err != nil {
			return fmt.Errorf("failed to read registers: %v", err)
		}
		if err = regs.SetRegister(regName, value); err != nil {
			return err
		}

		// 写回寄存器
		if err = target.DBPProcess.WriteRegister(regs.Raw()); err != nil {
			return fmt.Errorf("failed to write register %s: %v", regName, err)
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(setRegCmd)
}
