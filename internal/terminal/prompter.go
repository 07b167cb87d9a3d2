// Package terminal 用 survey、lipgloss 与 fatih/color 实现 editor.Prompter。
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	surveyterm "github.com/AlecAivazis/survey/v2/terminal"

	"github.com/btt-go/smartcache/editor"
)

const pageSize = 15

// SurveyPrompter 在真实终端上提示操作员。
type SurveyPrompter struct {
	out io.Writer
}

// NewSurveyPrompter 创建 Prompter，表格写到 out（nil 时为 stdout）。
func NewSurveyPrompter(out io.Writer) *SurveyPrompter {
	if out == nil {
		out = os.Stdout
	}
	return &SurveyPrompter{out: out}
}

var _ editor.Prompter = (*SurveyPrompter)(nil)
var _ editor.Notifier = (*SurveyPrompter)(nil)

// ShowTable 把表格渲染到输出。
func (p *SurveyPrompter) ShowTable(title string, headers []string, rows [][]string) {
	fmt.Fprintln(p.out, RenderTable(title, headers, rows))
}

// Input 读取一行文本，placeholder 作为默认值。
func (p *SurveyPrompter) Input(message, placeholder string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: message, Default: placeholder}, &answer)
	return answer, mapErr(err)
}

// Confirm 询问是或否。
func (p *SurveyPrompter) Confirm(message string, def bool) (bool, error) {
	answer := def
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &answer)
	return answer, mapErr(err)
}

// Select 在选项中选择一项，返回下标；光标初始停在 cursor。
func (p *SurveyPrompter) Select(message string, options []string, cursor int) (int, error) {
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: pageSize,
	}
	if cursor >= 0 && cursor < len(options) {
		prompt.Default = options[cursor]
	}
	var idx int
	if err := survey.AskOne(prompt, &idx); err != nil {
		return 0, mapErr(err)
	}
	return idx, nil
}

// Notify 以彩色状态行输出消息。
func (p *SurveyPrompter) Notify(level editor.Level, msg string) {
	Status(p.out, level, "%s", msg)
}

// mapErr 把 Ctrl+C 转换为 editor.ErrEscape。
func mapErr(err error) error {
	if errors.Is(err, surveyterm.InterruptErr) {
		return editor.ErrEscape
	}
	return err
}
