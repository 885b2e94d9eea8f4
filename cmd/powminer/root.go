package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weisyn/powminer/internal/app"
	"github.com/weisyn/powminer/internal/app/version"
	config "github.com/weisyn/powminer/internal/config"
	"github.com/weisyn/powminer/pkg/types"
)

// runFlags run 子命令标志
type runFlags struct {
	ConfigPath string // 配置文件路径
	Address    string // 覆盖 miner.address
	Network    string // 覆盖 chain.network
	ListenAddr string // 覆盖 api.listen_addr
	Workers    int    // 覆盖 miner.workers（-1 表示不覆盖）
	AutoStart  bool   // 启动后立即开始挖矿
	NoAPI      bool   // 不启动HTTP控制接口
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "powminer",
		Short: "开发链 PoW 挖矿协调器",
		Long: `powminer - 面向本地开发链的 PoW 挖矿协调器

在本进程内维护一条以网络创世区块为起点的开发链，
以多协程搜索 nonce 空间出块，并通过 HTTP 控制接口
启动/停止挖矿、提交交易与查询链状态。`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd(), newMiningCmd(), newKeygenCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "启动挖矿协调器",
		Example: `  powminer run --config configs/powminer.json
  powminer run --network regtest --autostart --address <regtest 地址>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := loadRunConfig(cmd, flags)
			if err != nil {
				return err
			}

			opts := []app.Option{app.WithAppConfig(appConfig)}
			if flags.NoAPI {
				opts = append(opts, app.WithoutAPI())
			}

			application, err := app.Start(opts...)
			if err != nil {
				return err
			}
			fmt.Println("🚀 powminer 已启动，按 Ctrl+C 停止...")
			application.Wait()
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.ConfigPath, "config", "c", "", "配置文件路径（JSON）")
	f.StringVar(&flags.Address, "address", "", "出块奖励地址")
	f.StringVar(&flags.Network, "network", "", "网络：mainnet/testnet3/regtest/simnet")
	f.StringVar(&flags.ListenAddr, "listen", "", "HTTP控制接口监听地址")
	f.IntVar(&flags.Workers, "workers", -1, "工作协程数（0 表示使用 CPU 核数）")
	f.BoolVar(&flags.AutoStart, "autostart", false, "启动后立即开始挖矿")
	f.BoolVar(&flags.NoAPI, "no-api", false, "不启动HTTP控制接口")

	return cmd
}

// loadRunConfig 加载配置文件并应用命令行覆盖，最后整体校验
func loadRunConfig(cmd *cobra.Command, flags *runFlags) (*types.AppConfig, error) {
	appConfig, err := config.LoadAppConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyRunFlags(cmd, flags, appConfig)

	if err := config.ValidateAppConfig(appConfig); err != nil {
		return nil, err
	}
	return appConfig, nil
}

// applyRunFlags 只覆盖显式指定的标志
func applyRunFlags(cmd *cobra.Command, flags *runFlags, appConfig *types.AppConfig) {
	changed := cmd.Flags().Changed

	if changed("address") || changed("autostart") || changed("workers") {
		if appConfig.Miner == nil {
			appConfig.Miner = &types.UserMinerConfig{}
		}
		if changed("address") {
			appConfig.Miner.Address = &flags.Address
		}
		if changed("autostart") {
			appConfig.Miner.AutoStart = &flags.AutoStart
		}
		if changed("workers") {
			appConfig.Miner.Workers = &flags.Workers
		}
	}
	if changed("network") {
		if appConfig.Chain == nil {
			appConfig.Chain = &types.UserChainConfig{}
		}
		appConfig.Chain.Network = &flags.Network
	}
	if changed("listen") {
		if appConfig.API == nil {
			appConfig.API = &types.UserAPIConfig{}
		}
		appConfig.API.ListenAddr = &flags.ListenAddr
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
		},
	}
}
