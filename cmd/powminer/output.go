package main

import (
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// configureOutput 输出不是终端（管道、重定向）时关闭 pterm 的颜色与样式
func configureOutput() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		pterm.DisableStyling()
	}
}
