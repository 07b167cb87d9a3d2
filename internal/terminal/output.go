package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/btt-go/smartcache/editor"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type statusStyle struct {
	color *color.Color
	tag   string
}

// 各级别状态行的颜色与标签
var statusStyles = map[editor.Level]statusStyle{
	editor.LevelInfo:    {color.New(color.FgCyan), "info"},
	editor.LevelSuccess: {color.New(color.FgGreen, color.Bold), "done"},
	editor.LevelWarning: {color.New(color.FgYellow, color.Bold), "warning"},
	editor.LevelError:   {color.New(color.FgRed, color.Bold), "error"},
}

// Status 向 w 写一行带级别标签的彩色状态消息。未知级别按 info 输出。
func Status(w io.Writer, level editor.Level, format string, args ...any) {
	st, ok := statusStyles[level]
	if !ok {
		st = statusStyles[editor.LevelInfo]
	}
	st.color.Fprintf(w, "[%s] %s\n", st.tag, fmt.Sprintf(format, args...))
}

// RenderTable 渲染带标题的表格，没有数据时输出提示行。
func RenderTable(title string, headers []string, rows [][]string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n")
	}
	if len(rows) == 0 {
		b.WriteString(emptyStyle.Render("No " + strings.ToLower(title) + " found"))
		return b.String()
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	b.WriteString(t.Render())
	return b.String()
}
