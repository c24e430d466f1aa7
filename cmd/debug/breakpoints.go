package debug

import (
	"fmt"

	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var breaksCmd = &cobra.Command{
	Use:     "breaks",
	Short:   "列出所有断点",
	Long:    "列出所有断点，以及通过setbrk添加的guest pc断点的状态",
	Aliases: []string{"bs", "breakpoints"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	Run: func(cmd *cobra.Command, args []string) {
		for _, b := range target.DBPProcess.ListBreakpoints() {
			flags := ""
			if b.AutoContinue {
				flags = " auto-continue"
			}
			fmt.Printf("breakpoint[%d] addr:%#x, loc:%s, hits:%d%s\n", b.ID, b.Addr, b.Pos, b.Hits, flags)
		}

		for _, r := range CurrentSession.Bridge().Requests() {
			if r.Host == 0 {
				fmt.Printf("guest pc:%#x %s\n", r.Guest, r.State)
				continue
			}
			fmt.Printf("guest pc:%#x %s, addr:%#x\n", r.Guest, r.State, r.Host)
		}
	},
}

func init() {
	debugRootCmd.AddCommand(breaksCmd)
}
