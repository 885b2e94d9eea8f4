// Package event 定义事件总线接口
//
// 事件总线是矿工与外部系统（链、交易池、API）之间的松耦合通道：
// - 入站：链尖变化、交易池新增交易
// - 出站：区块挖出、挖矿进度、挖矿错误、状态变更
package event

import "github.com/weisyn/powminer/pkg/types"

// EventType 事件类型（定义位于 pkg/types）
type EventType = types.EventType

// EventBus 事件总线接口
//
// 处理器为任意函数，发布时按参数反射调用；Publish 同步执行全部处理器。
// 取消订阅按函数指针匹配，同一事件类型上的同一函数只应订阅一次。
type EventBus interface {
	Subscribe(eventType EventType, handler interface{}) error
	Unsubscribe(eventType EventType, handler interface{}) error
	Publish(eventType EventType, args ...interface{})
	HasCallback(eventType EventType) bool
}
