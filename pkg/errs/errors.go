package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ========== 错误类型层次结构 ==========

// 错误类型
const (
	TypeValidation        = "ValidationError"
	TypeCredentialMissing = "CredentialMissing"
	TypeRemoteService     = "RemoteServiceFailure"
	TypeStorage           = "StorageUnavailable"
	TypeDuplicateID       = "DuplicateID"
	TypeNotFound          = "NotFound"
	TypeInternal          = "InternalError"
)

// Error 基础错误接口
type Error interface {
	error
	GetType() string
	GetMessage() string
	GetCode() int
	GetDetails() string
}

// BaseError 基础错误结构
type BaseError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
	cause   error
}

func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *BaseError) Unwrap() error {
	return e.cause
}

func (e *BaseError) GetType() string {
	return e.Type
}

func (e *BaseError) GetMessage() string {
	return e.Message
}

func (e *BaseError) GetCode() int {
	return e.Code
}

func (e *BaseError) GetDetails() string {
	return e.Details
}

// ValidationError 请求缺少必填字段或格式错误
type ValidationError struct {
	*BaseError
	Fields []string `json:"fields,omitempty"`
}

func NewValidation(message string, fields ...string) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			Type:    TypeValidation,
			Message: message,
			Code:    http.StatusBadRequest,
		},
		Fields: fields,
	}
}

// CredentialMissing 未配置API密钥，前端应跳转到设置页
type CredentialMissing struct {
	*BaseError
	Redirect string `json:"redirect"`
}

func NewCredentialMissing(redirect string) *CredentialMissing {
	return &CredentialMissing{
		BaseError: &BaseError{
			Type:    TypeCredentialMissing,
			Message: "No API key found. Please add your OpenAI API key in Settings.",
			Code:    http.StatusUnauthorized,
		},
		Redirect: redirect,
	}
}

// RemoteServiceFailure 远程服务调用失败，对用户只展示通用信息
type RemoteServiceFailure struct {
	*BaseError
	Service string `json:"service"`
}

func NewRemoteServiceFailure(service, message string, cause error) *RemoteServiceFailure {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return &RemoteServiceFailure{
		BaseError: &BaseError{
			Type:    TypeRemoteService,
			Message: message,
			Details: details,
			Code:    http.StatusBadGateway,
			cause:   cause,
		},
		Service: service,
	}
}

// StorageUnavailable 持久化层不可用或写入失败
type StorageUnavailable struct {
	*BaseError
}

func NewStorageUnavailable(message string, cause error) *StorageUnavailable {
	return &StorageUnavailable{
		BaseError: &BaseError{
			Type:    TypeStorage,
			Message: message,
			Code:    http.StatusServiceUnavailable,
			cause:   cause,
		},
	}
}

// DuplicateID 生成的ID与已有记录冲突
type DuplicateID struct {
	*BaseError
	ID string `json:"id"`
}

func NewDuplicateID(id string) *DuplicateID {
	return &DuplicateID{
		BaseError: &BaseError{
			Type:    TypeDuplicateID,
			Message: fmt.Sprintf("analysis id %s already exists", id),
			Code:    http.StatusInternalServerError,
		},
		ID: id,
	}
}

// NotFound 资源不存在
type NotFound struct {
	*BaseError
}

func NewNotFound(what string) *NotFound {
	return &NotFound{
		BaseError: &BaseError{
			Type:    TypeNotFound,
			Message: fmt.Sprintf("%s not found", what),
			Code:    http.StatusNotFound,
		},
	}
}

// ========== 辅助函数 ==========

// HTTPStatus 错误对应的HTTP状态码，未知错误返回500
func HTTPStatus(err error) int {
	var e Error
	if errors.As(err, &e) {
		return e.GetCode()
	}
	return http.StatusInternalServerError
}

// TypeOf 错误类型，未知错误返回 InternalError
func TypeOf(err error) string {
	var e Error
	if errors.As(err, &e) {
		return e.GetType()
	}
	return TypeInternal
}

// IsStorageUnavailable 是否为存储不可用错误
func IsStorageUnavailable(err error) bool {
	var e *StorageUnavailable
	return errors.As(err, &e)
}

// IsRemoteServiceFailure 是否为远程服务错误
func IsRemoteServiceFailure(err error) bool {
	var e *RemoteServiceFailure
	return errors.As(err, &e)
}

// IsValidation 是否为参数校验错误
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsCredentialMissing 是否为缺少API密钥
func IsCredentialMissing(err error) bool {
	var e *CredentialMissing
	return errors.As(err, &e)
}
