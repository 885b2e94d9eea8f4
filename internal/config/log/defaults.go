package log

// 日志配置默认值
const (
	// 挖矿进度按窗口上报，info 级别足以观察算力变化
	defaultLogLevel  = "info"
	defaultToConsole = true
	defaultFilePath  = "stdout"

	defaultMaxSizeMB  = 100
	defaultMaxBackups = 10
	defaultMaxAgeDays = 30
	defaultCompress   = true

	defaultEnableCaller     = true
	defaultEnableStacktrace = true
)
