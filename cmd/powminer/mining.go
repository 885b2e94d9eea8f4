package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/weisyn/powminer/internal/api/client"
)

const defaultAPIEndpoint = "http://127.0.0.1:8645"

func newMiningCmd() *cobra.Command {
	var endpoint string

	cmd := &cobra.Command{
		Use:   "mining",
		Short: "通过HTTP控制接口控制挖矿",
		Long:  "启动、停止挖矿，查看挖矿状态（需要 powminer run 已启用控制接口）",
	}
	cmd.PersistentFlags().StringVar(&endpoint, "api", defaultAPIEndpoint, "控制接口地址")
	cmd.PersistentPreRun = func(*cobra.Command, []string) { configureOutput() }

	var address string
	start := &cobra.Command{
		Use:   "start",
		Short: "启动挖矿",
		Example: `  powminer mining start
  powminer mining start --address <regtest 地址>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := client.New(endpoint).StartMining(ctx, address); err != nil {
				pterm.Error.Println(err.Error())
				return err
			}
			pterm.Success.Println("挖矿已启动")
			return nil
		},
	}
	start.Flags().StringVar(&address, "address", "", "出块奖励地址（为空时使用服务端配置）")

	stop := &cobra.Command{
		Use:   "stop",
		Short: "停止挖矿",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := client.New(endpoint).StopMining(ctx); err != nil {
				pterm.Error.Println(err.Error())
				return err
			}
			pterm.Success.Println("挖矿已停止")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "查看挖矿状态与链尖",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			return showStatus(ctx, client.New(endpoint))
		},
	}

	cmd.AddCommand(start, stop, status)
	return cmd
}

func showStatus(ctx context.Context, c *client.Client) error {
	status, err := c.MiningStatus(ctx)
	if err != nil {
		pterm.Error.Println(err.Error())
		return err
	}
	tip, err := c.Tip(ctx)
	if err != nil {
		pterm.Error.Println(err.Error())
		return err
	}

	pterm.DefaultSection.Println("挖矿状态")
	rows := [][]string{
		{"状态", stateLabel(status.State)},
		{"作业", orDash(status.JobID)},
		{"模板高度", strconv.FormatUint(uint64(status.Height), 10)},
		{"extranonce 代数", strconv.FormatUint(status.Iterations, 10)},
		{"算力", formatHashRate(status.HashRate)},
		{"已出块", strconv.FormatUint(status.BlocksFound, 10)},
		{"奖励地址", orDash(status.MinerAddress)},
	}
	if status.LastError != "" {
		rows = append(rows, []string{"最近错误", pterm.Red(status.LastError)})
	}
	if err := pterm.DefaultTable.WithHasHeader(false).WithBoxed(true).WithData(rows).Render(); err != nil {
		return err
	}

	pterm.DefaultSection.Println("链尖")
	return pterm.DefaultTable.WithHasHeader(false).WithBoxed(true).WithData([][]string{
		{"高度", strconv.FormatUint(uint64(tip.Height), 10)},
		{"哈希", tip.Hash},
		{"难度", tip.Bits},
		{"时间", time.Unix(tip.Timestamp, 0).Format(time.RFC3339)},
	}).Render()
}

func stateLabel(state string) string {
	switch state {
	case "Active":
		return pterm.Green(state)
	case "Stopping":
		return pterm.Yellow(state)
	case "Error":
		return pterm.Red(state)
	default:
		return pterm.Gray(state)
	}
}

// formatHashRate 以 H/s、kH/s、MH/s 显示算力
func formatHashRate(rate uint64) string {
	switch {
	case rate >= 1_000_000:
		return fmt.Sprintf("%.2f MH/s", float64(rate)/1_000_000)
	case rate >= 1_000:
		return fmt.Sprintf("%.2f kH/s", float64(rate)/1_000)
	default:
		return fmt.Sprintf("%d H/s", rate)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
