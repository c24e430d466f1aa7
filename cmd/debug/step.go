package debug

import (
	"fmt"

	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var stepCmd = &cobra.Command{
	Use:     "step",
	Short:   "执行一条指令",
	Aliases: []string{"s", "si"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbp := target.DBPProcess

		status, err := dbp.SingleStep()
		if err != nil {
			return fmt.Errorf("single step err: %v", err)
		}
		if status.Exited() {
			fmt.Printf("tracee exited: %d\n", status.ExitStatus())
			return nil
		}

		// display current pc
		regs, err := dbp.ReadRegister()
		if err != nil {
			return fmt.Errorf("get regs error: %v", err)
		}
		fmt.Printf("single step ok, current PC: %#x\n", regs.PC())
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(stepCmd)
}
