package debug

import (
	"fmt"

	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var clearallCmd = &cobra.Command{
	Use:   "clearall",
	Short: "清除所有的断点",
	Long:  `清除所有的断点，包括翻译器通知用的断点，之后pending的guest断点不会再生效`,
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := target.DBPProcess.ClearAll(); err != nil {
			return err
		}
		fmt.Println("清空断点成功")
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(clearallCmd)
}
