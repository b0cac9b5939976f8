package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ning0612/jutil/internal/hwinfo"
)

var hwinfoCmd = &cobra.Command{
	Use:   "hwinfo",
	Short: "Print platform, CPU, RAM and GPU information",
	Long: `Each category is answered by the first provider that returns something:
gopsutil, then ghw, then the Go runtime for CPU and platform; nvidia-smi,
rocm-smi, then ghw for GPUs.`,
	Args: cobra.NoArgs,
	RunE: runHWInfo,
}

func init() {
	rootCmd.AddCommand(hwinfoCmd)
}

func runHWInfo(cmd *cobra.Command, args []string) error {
	log, err := initLogger(nil)
	if err != nil {
		return err
	}

	r := hwinfo.NewReporter(nil)
	r.Log = log.With("component", "hwinfo")
	fmt.Println(r.Report(cmd.Context()))
	return nil
}
