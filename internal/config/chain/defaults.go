package chain

import "time"

const (
	// defaultNetwork 默认使用回归测试网络，难度最低，便于本地出块
	defaultNetwork = "regtest"

	// defaultCacheLifeWindow 区块缓存存活时间
	defaultCacheLifeWindow = 30 * time.Minute
)
