package event

const (
	// 矿工依赖事件总线接收链尖与交易池通知，默认必须启用
	defaultEnabled = true

	// 每个 WebSocket 事件类型只占一个订阅，64 足够
	defaultMaxSubscribers = 64
)
