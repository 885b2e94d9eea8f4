// Package version 构建版本信息
package version

import (
	"fmt"
	"runtime"
	"time"
)

// 通过 -ldflags "-X github.com/weisyn/powminer/internal/app/version.Version=..." 注入
var (
	Version   = "v0.1.0"
	Commit    = "unknown"
	BuildTime = "unknown" // RFC3339
)

// Info 构建信息
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get 返回当前二进制的构建信息
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GetFullVersion 多行版本说明，用于 powminer version
func GetFullVersion() string {
	info := Get()
	s := fmt.Sprintf("powminer %s", info.Version)
	if info.Commit != "unknown" {
		s += fmt.Sprintf(" (%s)", info.Commit)
	}
	if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
		s += fmt.Sprintf("\n构建时间: %s", t.Format("2006-01-02 15:04:05 MST"))
	}
	s += fmt.Sprintf("\nGo版本: %s\n平台: %s", info.GoVersion, info.Platform)
	return s
}
