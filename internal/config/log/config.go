package log

import (
	"go.uber.org/zap/zapcore"

	configtypes "github.com/weisyn/powminer/pkg/types"
)

// LogOptions 日志配置选项
type LogOptions struct {
	Level     string `json:"level"`
	ToConsole bool   `json:"to_console"`
	FilePath  string `json:"file_path"` // stdout/stderr 表示不写文件

	// lumberjack 轮转参数
	MaxSizeMB  int  `json:"max_size_mb"`
	MaxBackups int  `json:"max_backups"`
	MaxAgeDays int  `json:"max_age_days"`
	Compress   bool `json:"compress"`

	EnableCaller     bool `json:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace"` // 仅 Error 及以上
}

// Config 日志配置实现
type Config struct {
	options *LogOptions
}

// New 以默认值为基础叠加用户配置
func New(userConfig *configtypes.UserLogConfig) *Config {
	options := &LogOptions{
		Level:            defaultLogLevel,
		ToConsole:        defaultToConsole,
		FilePath:         defaultFilePath,
		MaxSizeMB:        defaultMaxSizeMB,
		MaxBackups:       defaultMaxBackups,
		MaxAgeDays:       defaultMaxAgeDays,
		Compress:         defaultCompress,
		EnableCaller:     defaultEnableCaller,
		EnableStacktrace: defaultEnableStacktrace,
	}
	if userConfig != nil {
		applyUserLogConfig(options, userConfig)
	}
	return &Config{options: options}
}

// FromOptions 由已合并的选项构造，供日志模块复用 Provider 的结果
func FromOptions(options *LogOptions) *Config {
	if options == nil {
		return New(nil)
	}
	copied := *options
	return &Config{options: &copied}
}

func applyUserLogConfig(options *LogOptions, logConfig *configtypes.UserLogConfig) {
	if logConfig.Level != nil {
		options.Level = string(configtypes.ParseLogLevel(*logConfig.Level))
	}
	if logConfig.FilePath != nil {
		options.FilePath = *logConfig.FilePath
		// 写文件时默认关闭控制台，可由 to_console 显式打开
		options.ToConsole = !writesToFile(options.FilePath)
	}
	if logConfig.ToConsole != nil {
		options.ToConsole = *logConfig.ToConsole
	}
	if logConfig.MaxSizeMB != nil && *logConfig.MaxSizeMB > 0 {
		options.MaxSizeMB = *logConfig.MaxSizeMB
	}
	if logConfig.MaxBackups != nil && *logConfig.MaxBackups >= 0 {
		options.MaxBackups = *logConfig.MaxBackups
	}
	if logConfig.MaxAgeDays != nil && *logConfig.MaxAgeDays >= 0 {
		options.MaxAgeDays = *logConfig.MaxAgeDays
	}
	if logConfig.Compress != nil {
		options.Compress = *logConfig.Compress
	}
}

func writesToFile(path string) bool {
	return path != "" && path != "stdout" && path != "stderr"
}

// GetOptions 完整配置
func (c *Config) GetOptions() *LogOptions    { return c.options }

// GetZapLevel zap 日志级别，未知级别按 info 处理
func (c *Config) GetZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.options.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func (c *Config) IsConsoleEnabled() bool     { return c.options.ToConsole }
func (c *Config) GetFilePath() string        { return c.options.FilePath }
func (c *Config) GetMaxSize() int            { return c.options.MaxSizeMB }
func (c *Config) GetMaxBackups() int         { return c.options.MaxBackups }
func (c *Config) GetMaxAge() int             { return c.options.MaxAgeDays }
func (c *Config) IsCompressionEnabled() bool { return c.options.Compress }
func (c *Config) IsCallerEnabled() bool      { return c.options.EnableCaller }
func (c *Config) IsStacktraceEnabled() bool  { return c.options.EnableStacktrace }

// IsFileEnabled 是否写日志文件
func (c *Config) IsFileEnabled() bool { return writesToFile(c.options.FilePath) }

func baseEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	}
}

// CreateFileEncoder JSON 编码器
func (c *Config) CreateFileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(baseEncoderConfig())
}

// CreateConsoleEncoder 带颜色的控制台编码器
func (c *Config) CreateConsoleEncoder() zapcore.Encoder {
	cfg := baseEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}
