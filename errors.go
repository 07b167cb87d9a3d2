package smartcache

import (
	"errors"
	"fmt"
)

var (
	// ErrStale 表示 tail 重试已耗尽，Get 返回的是最后一次成功应用的规则集。
	ErrStale = errors.New("config tail unavailable, serving last known-good rules")
	// ErrAlreadyStarted 表示 Synchronizer 已经启动。
	ErrAlreadyStarted = errors.New("synchronizer already started")
	// ErrEmptyRecord 表示试图追加一条没有字段的记录。
	ErrEmptyRecord = errors.New("empty config record")
)

// ValidationError 表示规则构造时的非法输入（TTL、谓词类型、匹配值）。
// 交互会话中它会被直接展示并重新提示。
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ConnectivityError 表示启动阶段无法访问存储，进程应立即退出。
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("store unreachable (%s): %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// SerializationError 表示日志中的某条记录无法还原为规则集。
type SerializationError struct {
	EntryID string
	Key     string
	Err     error
}

func (e *SerializationError) Error() string {
	msg := "malformed config record"
	if e.EntryID != "" {
		msg += " " + e.EntryID
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" (field %q)", e.Key)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// CommitError 表示规则集追加到日志失败。
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit failed: %v", e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsValidation 判断 err 链中是否包含 ValidationError。
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConnectivity 判断 err 链中是否包含 ConnectivityError。
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
