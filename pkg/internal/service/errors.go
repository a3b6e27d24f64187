package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yeisme/papervault/pkg/auth"
)

// Kind 错误类别，由 handler 映射为 HTTP 状态码.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindInvalidToken
	KindForbidden
	KindNotFound
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidToken:
		return "invalid_token"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error 业务错误，Msg 为返回给客户端的文案.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest 客户端输入错误.
func BadRequest(msg string) error {
	return &Error{Kind: KindBadRequest, Msg: msg}
}

// Forbidden 权限不足.
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

// NotFound 记录不存在.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Upstream 数据库或对象存储调用失败.
func Upstream(op string, err error) error {
	return &Error{Kind: KindUpstream, Msg: op, Err: err}
}

// KindOf 归类任意错误.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}

	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}

	switch {
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, auth.ErrInvalidToken):
		return KindInvalidToken
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}
