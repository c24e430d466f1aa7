package debug

import (
	"errors"
	"fmt"

	"github.com/hitzhangjie/tcgdbg/pkg/bridge"
	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var setbrkCmd = &cobra.Command{
	Use:   "setbrk <guest-pc> [binary]",
	Short: "在guest pc处添加断点",
	Long: `在guest pc处添加断点，断点实际添加在翻译器为该pc生成的host代码处。

guest-pc支持0x开头的十六进制或十进制。指定binary时，guest-pc为binary文件中的地址，
会加上binary代码段的加载偏移。

如果guest-pc还没有被翻译，断点进入pending状态，翻译器翻译该pc时自动添加断点。`,
	Aliases: []string{"sb"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: setbrk <guest-pc> [binary]")
		}
		if target.DBPProcess == nil {
			return errors.New("please attach to a process first")
		}

		addr, err := bridge.ParseAddress(args[0])
		if err != nil {
			return err
		}
		var binary string
		if len(args) == 2 {
			binary = args[1]
		}

		o, err := CurrentSession.Bridge().SetBreak(target.DBPProcess, addr, binary)
		if err != nil {
			return err
		}
		if o.State == bridge.Resolved {
			fmt.Printf("breakpoint[%d] addr:%#x, guest pc:%#x\n", o.Breakpoint.ID, o.Host, o.Guest)
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(setbrkCmd)
}
