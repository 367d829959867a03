// pumpdiag 离线诊断单条测量记录并输出报告，不依赖 Kafka/OpenSearch/Redis。
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:          "pumpdiag",
		Short:        "泵组振动离线诊断工具",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
