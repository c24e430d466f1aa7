/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"

	"github.com/hitzhangjie/tcgdbg/pkg/target"

	"github.com/spf13/cobra"
)

// execCmd represents the exec command
var execCmd = &cobra.Command{
	Use:   "exec -- <translator> [args...]",
	Short: "启动并调试翻译器进程",
	Long: `启动并调试翻译器进程，翻译器的参数放在"--"之后，如：

	tcgdbg exec -- ./qemu-aarch64 -L /sysroot ./guest`,
	RunE: func(cmd *cobra.Command, args []string) error {

		if len(args) < 1 {
			return errors.New("参数错误")
		}

		conf, err := loadConfig()
		if err != nil {
			return err
		}

		// start tracee and wait tracee stopped
		dbp, err := target.NewDebuggedProcess(args[0], args[1:])
		if err != nil {
			return err
		}
		return startSession(conf, dbp)
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
