package debug

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/hitzhangjie/tcgdbg/pkg/target"
	"github.com/spf13/cobra"
)

var setMemCmd = &cobra.Command{
	Use:   "setmem <addr> <value>",
	Short: "设置指定内存位置的值",
	Long: `设置指定内存位置的值，默认写入1个字节，可以通过-s指定写入的字节数: 1, 2, 4, 8。

多字节按小端序写入。`,
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 检查参数数量
		if len(args) != 2 {
			return errors.New("usage: setmem <addr> <value>")
		}

		// 检查是否有调试进程
		if target.DBPProcess == nil {
			return errors.New("please attach to a process first")
		}
		size, _ := cmd.Flags().GetInt("size")

		// 解析地址参数
		addrStr := args[0]
		addr, err := strconv.ParseUint(addrStr, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid address format: %s", addrStr)
		}

		// 解析值参数
		valueStr := args[1]
		value, err := strconv.ParseUint(valueStr, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid value format: %s", valueStr)
		}

		data, err := encodeValue(value, size)
		if err != nil {
			return err
		}

		// 读取当前内存值用于显示
		old := make([]byte, size)
		n, err := target.DBPProcess.ReadMemory(uintptr(addr), old)
		if err != nil || n != size {
			return fmt.Errorf("failed to read memory at address 0x%x: %v", addr, err)
		}

		// 写入新值
		err = target.DBPProcess.WriteMemory(uintptr(addr), data)
		if err != nil {
			return fmt.Errorf("failed to write memory at address 0x%x: %v", addr, err)
		}

		fmt.Printf("%#x: % x => % x\n", addr, old, data)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(setMemCmd)
	setMemCmd.Flags().IntP("size", "s", 1, "写入的字节数")
}

func encodeValue(value uint64, size int) ([]byte, error) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)

	switch size {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("invalid size: %d", size)
	}
	if size < 8 && value>>(uint(size)*8) != 0 {
		return nil, fmt.Errorf("value %#x overflows %d bytes", value, size)
	}
	return buf[:size], nil
}
