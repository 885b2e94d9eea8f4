// Package clock provides default configuration values for clock service.
package clock

import "time"

// 时钟服务配置默认值
const (
	// defaultSource 默认时钟类型
	defaultSource = "system"

	// defaultNTPServer 默认NTP服务器
	defaultNTPServer = "time.google.com"

	// defaultSyncInterval NTP同步间隔
	defaultSyncInterval = 5 * time.Minute
)
