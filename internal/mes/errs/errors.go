// Package errs 定义MES核心操作的统一错误分类。
// 所有业务操作返回带Kind标签的错误，HTTP层按Kind映射状态码，
// 存储层瞬时故障统一包装为 KindCollaborator，核心不做重试。
package errs

import (
	"errors"
	"fmt"
)

// Kind 错误类别
type Kind int

const (
	KindUnknown      Kind = iota
	KindNotFound          // 实体不存在
	KindValidation        // 入参非法（负数量、空工序配置等）
	KindLocked            // 对已锁定实体的结构性修改
	KindConflict          // 并发状态冲突（同机台双活跃任务等）
	KindInvalidState      // 当前生命周期状态不允许该操作
	KindCollaborator      // 持久化协作方故障
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindValidation:
		return "VALIDATION"
	case KindLocked:
		return "LOCKED"
	case KindConflict:
		return "CONFLICT"
	case KindInvalidState:
		return "INVALID_STATE"
	case KindCollaborator:
		return "COLLABORATOR"
	}
	return "UNKNOWN"
}

// Error 带上下文的业务错误：实体、ID、操作齐备，调用方可直接渲染
type Error struct {
	Kind   Kind
	Entity string
	ID     string
	Op     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Kind, e.Op)
	if e.Entity != "" {
		s += " " + e.Entity
	}
	if e.ID != "" {
		s += "(" + e.ID + ")"
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound 实体不存在
func NotFound(op, entity, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Entity: entity, ID: id, Msg: "记录不存在"}
}

// Validation 入参校验失败
func Validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// Locked 实体已锁定
func Locked(op, entity, id string) *Error {
	return &Error{Kind: KindLocked, Op: op, Entity: entity, ID: id, Msg: "实体已锁定，禁止结构性修改"}
}

// Conflict 并发状态冲突
func Conflict(op, entity, id, msg string) *Error {
	return &Error{Kind: KindConflict, Op: op, Entity: entity, ID: id, Msg: msg}
}

// InvalidState 状态机不允许
func InvalidState(op, entity, id, msg string) *Error {
	return &Error{Kind: KindInvalidState, Op: op, Entity: entity, ID: id, Msg: msg}
}

// Collaborator 存储层故障包装
func Collaborator(op string, err error) *Error {
	return &Error{Kind: KindCollaborator, Op: op, Msg: "存储层故障", Err: err}
}

// KindOf 提取错误类别，非本包错误返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is 判断错误是否属于指定类别
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
