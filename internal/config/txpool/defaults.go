package txpool

// 交易池配置默认值
const (
	// defaultMaxSize 默认交易池最大容量
	// 开发链上交易量很小，5000 足以覆盖本地测试
	defaultMaxSize = 5000

	// defaultMaxTransactionsForMining 单个模板最多打包的交易数
	// 限制模板大小，避免每次 extranonce 递增时重算过大的 merkle 树
	defaultMaxTransactionsForMining = 2000
)
