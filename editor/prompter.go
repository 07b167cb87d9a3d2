package editor

import (
	"errors"
	"fmt"
)

// ErrEscape 表示操作员取消了当前提示（Ctrl+C / Esc）。
var ErrEscape = errors.New("escape")

// Prompter 是交互驱动使用的终端能力。
// 实现必须串行调用；取消时返回 ErrEscape。
type Prompter interface {
	ShowTable(title string, headers []string, rows [][]string)
	Input(message, placeholder string) (string, error)
	Confirm(message string, def bool) (bool, error)
	Select(message string, options []string, cursor int) (int, error)
}

// Level 是状态消息的级别。
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// Notifier 是可选能力：Prompter 同时实现它时，驱动会输出状态消息。
type Notifier interface {
	Notify(level Level, msg string)
}

func notify(p Prompter, level Level, format string, args ...any) {
	if n, ok := p.(Notifier); ok {
		n.Notify(level, fmt.Sprintf(format, args...))
	}
}
