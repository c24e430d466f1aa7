package debug

import (
	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var disassCmd = &cobra.Command{
	Use:   "disass [address]",
	Short: "反汇编机器指令",
	Long: `反汇编机器指令，默认从当前PC开始。

常用于查看guest pc翻译后的host指令，如setbrk输出的addr。`,
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	Aliases: []string{"dis", "disassemble"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			max, _    = cmd.Flags().GetUint64("max")
			syntax, _ = cmd.Flags().GetString("syntax")
		)

		if len(args) != 0 {
			addr, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return target.DBPProcess.Disassemble(addr, max, syntax)
		}

		// 读取PC值
		regs, err := target.DBPProcess.ReadRegister()
		if err != nil {
			return err
		}
		return target.DBPProcess.Disassemble(regs.PC(), max, syntax)
	},
}

func init() {
	debugRootCmd.AddCommand(disassCmd)
	disassCmd.Flags().Uint64P("max", "n", 10, "反汇编指令数量")
	disassCmd.Flags().StringP("syntax", "s", "gnu", "反汇编指令语法，支持：go, gnu, intel")
}
