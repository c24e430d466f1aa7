package debug

import (
	"errors"
	"fmt"

	"github.com/hitzhangjie/tcgdbg/pkg/bridge"
	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var guestRegCmd = &cobra.Command{
	Use:   "guestreg <reg>...",
	Short: "打印guest寄存器",
	Long: `打印当前线程模拟的guest cpu寄存器，支持x0~x31, pc, lr, sp, env。

寄存器值通过调用翻译器的print_<reg>函数读取。`,
	Aliases: []string{"gr"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupGuest,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("usage: guestreg <reg>...")
		}
		if target.DBPProcess == nil {
			return errors.New("please attach to a process first")
		}

		for _, name := range args {
			v, err := bridge.GuestRegister(target.DBPProcess, name)
			if err != nil {
				return err
			}
			fmt.Printf("%-5s %#x\n", name, v)
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(guestRegCmd)
}
