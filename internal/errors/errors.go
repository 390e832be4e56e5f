// Package errors 提供募资域的结构化错误
package errors

import (
	stderrors "errors"
	"net/http"
)

// Code 机器可读的错误码
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	CodeRoleDenied            Code = "ROLE_DENIED"
	CodeWrongStage            Code = "WRONG_STAGE"
	CodeWindowViolation       Code = "WINDOW_VIOLATION"
	CodeCapViolation          Code = "CAP_VIOLATION"
	CodeDuplicateID           Code = "DUPLICATE_ID"
	CodeNotFound              Code = "NOT_FOUND"
	CodeAlreadyPaid           Code = "ALREADY_PAID"
	CodeFundsNotEmptied       Code = "FUNDS_NOT_EMPTIED"
	CodeInvalidRange          Code = "INVALID_RANGE"
	CodeBatchTooLarge         Code = "BATCH_TOO_LARGE"
	CodeInsufficientAllowance Code = "INSUFFICIENT_ALLOWANCE"
	CodeInvalidCapConfig      Code = "INVALID_CAP_CONFIG"
	CodeInvalidWindowConfig   Code = "INVALID_WINDOW_CONFIG"
	CodeTransferFailed        Code = "TRANSFER_FAILED"
	CodeInvalidArgument       Code = "INVALID_ARGUMENT"
)

// Error 带错误码的领域错误
type Error struct {
	Code     Code              // 错误码
	Message  string            // 原因描述
	Metadata map[string]string // 附加上下文
	Cause    error             // 底层错误
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap 返回底层错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按错误码比较
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New 创建领域错误
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata 创建带上下文的领域错误
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap 包装底层错误
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// GetCode 提取错误码，非领域错误返回 CodeUnknown
func GetCode(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode 判断错误链中是否包含指定错误码
func IsCode(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// HTTPStatus 错误码对应的 HTTP 状态码
func HTTPStatus(code Code) int {
	switch code {
	case CodeRoleDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeWrongStage, CodeWindowViolation, CodeDuplicateID, CodeAlreadyPaid, CodeFundsNotEmptied:
		return http.StatusConflict
	case CodeCapViolation, CodeInvalidRange, CodeBatchTooLarge, CodeInsufficientAllowance,
		CodeInvalidCapConfig, CodeInvalidWindowConfig, CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeTransferFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
