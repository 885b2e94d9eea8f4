// Package app 负责装配并运行挖矿协调器进程
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// App 运行中的挖矿协调器
type App interface {
	// Stop 按启动的逆序停止各模块：控制接口 → 矿工 → 交易池 → 链
	Stop() error

	// Wait 阻塞到收到 SIGINT/SIGTERM 后停止应用
	Wait()
}

type internalApp struct {
	bootstrap *Bootstrap
}

func (a *internalApp) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.bootstrap.opts.stopTimeout)
	defer cancel()
	return a.bootstrap.StopApp(ctx)
}

func (a *internalApp) Wait() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	fmt.Println("\n🛑 收到退出信号，正在停止挖矿并关闭服务...")
	if err := a.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️ 停止应用时出错: %v\n", err)
	}
}

// Start 装配并启动应用
func Start(opts ...Option) (App, error) {
	return BootstrapApp(opts...)
}
