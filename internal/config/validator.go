package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/weisyn/powminer/internal/config/chain"
	"github.com/weisyn/powminer/pkg/types"
)

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置验证失败 [%s]: %s", e.Field, e.Message)
}

// ValidateAppConfig 在启动时校验用户配置
//
// 各配置包对非法值会静默回退默认值，这里把这些情况提前暴露出来：
//   - chain.network 必须是已知网络
//   - miner.address 必须能按该网络解码
//   - 时长字段必须可解析且为正
//   - clock.source 只能是 system 或 ntp
//
// 返回值为 nil 或 *ValidationErrors。
func ValidateAppConfig(appConfig *types.AppConfig) error {
	if appConfig == nil {
		return nil
	}
	var errors []error

	network := "regtest"
	if appConfig.Chain != nil && appConfig.Chain.Network != nil && *appConfig.Chain.Network != "" {
		network = *appConfig.Chain.Network
	}
	params, err := chain.NetParams(network)
	if err != nil {
		errors = append(errors, &ValidationError{
			Field:   "chain.network",
			Message: fmt.Sprintf("不支持的网络 %q（可选 mainnet/testnet3/regtest/simnet）", network),
		})
	}
	if appConfig.Chain != nil {
		errors = appendDurationError(errors, "chain.cache_life_window", appConfig.Chain.CacheLifeWindow)
	}

	if miner := appConfig.Miner; miner != nil {
		if miner.Address != nil && strings.TrimSpace(*miner.Address) != "" && params != nil {
			addr, err := btcutil.DecodeAddress(strings.TrimSpace(*miner.Address), params)
			if err != nil || !addr.IsForNet(params) {
				errors = append(errors, &ValidationError{
					Field:   "miner.address",
					Message: fmt.Sprintf("地址 %q 不是 %s 网络的有效地址", *miner.Address, params.Name),
				})
			}
		}
		if miner.Workers != nil && *miner.Workers < 0 {
			errors = append(errors, &ValidationError{Field: "miner.workers", Message: "工作协程数不能为负"})
		}
		if miner.NonceIntervalCount != nil && *miner.NonceIntervalCount < 1 {
			errors = append(errors, &ValidationError{Field: "miner.nonce_interval_count", Message: "窗口数至少为 1"})
		}
		if miner.InboxSize != nil && *miner.InboxSize < 1 {
			errors = append(errors, &ValidationError{Field: "miner.inbox_size", Message: "收件箱容量至少为 1"})
		}
	}

	if clock := appConfig.Clock; clock != nil {
		if clock.Source != nil && *clock.Source != "system" && *clock.Source != "ntp" {
			errors = append(errors, &ValidationError{
				Field:   "clock.source",
				Message: fmt.Sprintf("未知时钟源 %q（可选 system/ntp）", *clock.Source),
			})
		}
		errors = appendDurationError(errors, "clock.sync_interval", clock.SyncInterval)
	}

	if api := appConfig.API; api != nil && api.ListenAddr != nil && strings.TrimSpace(*api.ListenAddr) == "" {
		errors = append(errors, &ValidationError{Field: "api.listen_addr", Message: "监听地址不能为空"})
	}

	if logCfg := appConfig.Log; logCfg != nil {
		if logCfg.Level != nil && !knownLogLevel(*logCfg.Level) {
			errors = append(errors, &ValidationError{
				Field:   "log.level",
				Message: fmt.Sprintf("未知日志级别 %q（可选 debug/info/warn/error/fatal）", *logCfg.Level),
			})
		}
		if logCfg.MaxSizeMB != nil && *logCfg.MaxSizeMB < 1 {
			errors = append(errors, &ValidationError{Field: "log.max_size_mb", Message: "单个日志文件上限至少为 1MB"})
		}
		if logCfg.MaxBackups != nil && *logCfg.MaxBackups < 0 {
			errors = append(errors, &ValidationError{Field: "log.max_backups", Message: "不能为负"})
		}
		if logCfg.MaxAgeDays != nil && *logCfg.MaxAgeDays < 0 {
			errors = append(errors, &ValidationError{Field: "log.max_age_days", Message: "不能为负"})
		}
	}

	if ev := appConfig.Event; ev != nil {
		if ev.Enabled != nil && !*ev.Enabled {
			errors = append(errors, &ValidationError{Field: "event.enabled", Message: "矿工依赖事件总线接收链尖通知，不能关闭"})
		}
		if ev.MaxSubscribers != nil && *ev.MaxSubscribers < 0 {
			errors = append(errors, &ValidationError{Field: "event.max_subscribers", Message: "不能为负"})
		}
	}

	if pool := appConfig.TxPool; pool != nil && pool.MaxSize != nil && *pool.MaxSize < 1 {
		errors = append(errors, &ValidationError{Field: "txpool.max_size", Message: "交易池容量至少为 1"})
	}

	if len(errors) > 0 {
		return &ValidationErrors{Errors: errors}
	}
	return nil
}

func knownLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "error", "fatal":
		return true
	}
	return false
}

func appendDurationError(errors []error, field string, value *string) []error {
	if value == nil {
		return errors
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil || d <= 0 {
		return append(errors, &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("时长格式无效: %q（期望类似 \"30s\"）", *value),
		})
	}
	return errors
}

// ValidationErrors 多个验证错误
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	msg := "配置验证失败，发现以下问题：\n"
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}
