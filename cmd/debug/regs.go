package debug

import (
	"errors"
	"fmt"

	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var regsCmd = &cobra.Command{
	Use:     "regs [reg]",
	Short:   "打印host寄存器",
	Long:    `打印当前线程的host寄存器，指定reg时只打印该寄存器，支持别名pc, sp, fp`,
	Aliases: []string{"r", "registers"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if target.DBPProcess == nil {
			return errors.New("please attach to a process first")
		}

		regs, err := target.DBPProcess.Registers()
		if err != nil {
			return err
		}

		names := regs.Names()
		if len(args) != 0 {
			names = args
		}
		for _, name := range names {
			v, err := regs.Register(name)
			if err != nil {
				return err
			}
			fmt.Printf("%-10s %#x\n", name, v)
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(regsCmd)
}
