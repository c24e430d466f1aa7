package debug

import (
	"fmt"

	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "运行到下个断点",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	Aliases: []string{"c"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ev, err := target.DBPProcess.Continue()
		if err != nil {
			return fmt.Errorf("continue error: %v", err)
		}
		fmt.Println(ev)

		if ev.Exited {
			fmt.Println("tracee exited, type exit to quit")
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(continueCmd)
}
