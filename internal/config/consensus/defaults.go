package consensus

// 矿工配置默认值
const (
	// defaultAutoStart 默认不自动开始挖矿
	defaultAutoStart = false

	// defaultWorkers 0 表示按 CPU 核数启动工作协程
	defaultWorkers = 0

	// defaultNonceIntervalCount nonce 空间切分的窗口数
	// 每个窗口结束都是一次取消检查点
	defaultNonceIntervalCount = 1500

	// defaultMempoolStaleThreshold 交易池通知累计超过该值后重建模板
	defaultMempoolStaleThreshold = 20

	// defaultInboxSize 协调器收件箱容量
	defaultInboxSize = 256
)
