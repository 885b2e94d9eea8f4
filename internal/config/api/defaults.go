package api

import "time"

// API服务默认配置值
const (
	// defaultEnabled 默认启用HTTP控制接口
	defaultEnabled = true

	// defaultListenAddr 默认只监听本机
	// 控制接口可以启停挖矿，不应暴露到外网
	defaultListenAddr = "127.0.0.1:8645"

	// defaultReadTimeout HTTP读取超时
	defaultReadTimeout = 15 * time.Second

	// defaultWriteTimeout HTTP写入超时
	defaultWriteTimeout = 15 * time.Second

	// defaultShutdownTimeout 优雅关闭超时
	defaultShutdownTimeout = 5 * time.Second
)
