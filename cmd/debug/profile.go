package debug

import (
	"errors"
	"fmt"

	"github.com/hitzhangjie/tcgdbg/pkg/bridge"
	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile <start|stop|pcs|callstacks|clear|x64 on|off>",
	Short: "控制翻译器的guest pc统计",
	Long: `控制翻译器的guest pc统计，统计结果由翻译器打印到其stderr。

- start/stop: 开始、停止统计
- pcs: 打印guest pc执行次数
- callstacks: 打印guest调用栈统计
- clear: 清空统计数据
- x64 on|off: 开关翻译器的host调用跟踪`,
	Aliases: []string{"prof"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupGuest,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("usage: profile <start|stop|pcs|callstacks|clear|x64 on|off>")
		}
		if target.DBPProcess == nil {
			return errors.New("please attach to a process first")
		}

		p := bridge.NewProfiler(target.DBPProcess)
		switch args[0] {
		case "start":
			return p.Start()
		case "stop":
			return p.Stop()
		case "pcs":
			return p.DumpPCs()
		case "callstacks":
			return p.DumpCallstacks()
		case "clear":
			return p.Clear()
		case "x64":
			if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
				return errors.New("usage: profile x64 on|off")
			}
			return p.TraceHostCalls(args[1] == "on")
		default:
			return fmt.Errorf("unknown profile action: %s", args[0])
		}
	},
}

func init() {
	debugRootCmd.AddCommand(profileCmd)
}
