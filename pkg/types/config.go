package types

// AppConfig 应用配置（用户配置文件的根结构）
//
// 只包含JSON配置文件中可能出现的字段，所有字段均为可选；
// 未出现的字段由各配置包的默认值补齐。
type AppConfig struct {
	// 日志配置 - 对应配置文件中的 log 字段
	Log *UserLogConfig `json:"log,omitempty"`

	// 矿工配置 - 对应配置文件中的 miner 字段
	Miner *UserMinerConfig `json:"miner,omitempty"`

	// 事件配置 - 对应配置文件中的 event 字段
	Event *UserEventConfig `json:"event,omitempty"`

	// API配置 - 对应配置文件中的 api 字段
	API *UserAPIConfig `json:"api,omitempty"`

	// 链配置 - 对应配置文件中的 chain 字段
	Chain *UserChainConfig `json:"chain,omitempty"`

	// 时钟配置 - 对应配置文件中的 clock 字段
	Clock *UserClockConfig `json:"clock,omitempty"`

	// 交易池配置 - 对应配置文件中的 txpool 字段
	TxPool *UserTxPoolConfig `json:"txpool,omitempty"`
}

// UserLogConfig 用户日志配置
type UserLogConfig struct {
	Level     *string `json:"level,omitempty"`      // 日志级别：debug, info, warn, error, fatal
	FilePath  *string `json:"file_path,omitempty"`  // 日志文件路径
	ToConsole *bool   `json:"to_console,omitempty"` // 是否输出到控制台

	MaxSizeMB  *int  `json:"max_size_mb,omitempty"`  // 单个日志文件上限(MB)
	MaxBackups *int  `json:"max_backups,omitempty"`  // 保留的历史文件数
	MaxAgeDays *int  `json:"max_age_days,omitempty"` // 历史文件保留天数
	Compress   *bool `json:"compress,omitempty"`     // 压缩历史文件
}

// UserMinerConfig 用户矿工配置
type UserMinerConfig struct {
	Address               *string `json:"address,omitempty"`                 // 出块奖励地址
	AutoStart             *bool   `json:"auto_start,omitempty"`              // 启动时自动开始挖矿
	Workers               *int    `json:"workers,omitempty"`                 // 工作协程数（0=CPU核数）
	NonceIntervalCount    *int    `json:"nonce_interval_count,omitempty"`    // nonce 空间窗口数
	MempoolStaleThreshold *int    `json:"mempool_stale_threshold,omitempty"` // 交易池通知阈值
	InboxSize             *int    `json:"inbox_size,omitempty"`              // 事件收件箱容量
}

// UserEventConfig 用户事件配置
type UserEventConfig struct {
	Enabled        *bool `json:"enabled,omitempty"`
	MaxSubscribers *int  `json:"max_subscribers,omitempty"` // 单个事件类型的订阅者上限（0=不限）
}

// UserAPIConfig 用户API配置
type UserAPIConfig struct {
	Enabled    *bool   `json:"enabled,omitempty"`
	ListenAddr *string `json:"listen_addr,omitempty"`
}

// UserChainConfig 用户链配置
type UserChainConfig struct {
	Network         *string `json:"network,omitempty"`           // mainnet/testnet3/regtest/simnet
	CacheLifeWindow *string `json:"cache_life_window,omitempty"` // 区块缓存存活时间，如 "30m"
}

// UserClockConfig 用户时钟配置
type UserClockConfig struct {
	Source       *string `json:"source,omitempty"`        // system | ntp
	NTPServer    *string `json:"ntp_server,omitempty"`    // NTP 服务器
	SyncInterval *string `json:"sync_interval,omitempty"` // NTP 同步间隔，如 "5m"
}

// UserTxPoolConfig 用户交易池配置
type UserTxPoolConfig struct {
	MaxSize                  *int    `json:"max_size,omitempty"`                    // 交易池最大交易数
	MaxTransactionsForMining *uint32 `json:"max_transactions_for_mining,omitempty"` // 单个模板最多交易数
}
