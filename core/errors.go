package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - Bundle 错误：LOAD_FAILURE, SCHEMA_MISMATCH
//   - Predictor 错误：NOT_READY
//   - Feature 错误：MALFORMED_INPUT, SCHEMA_MISMATCH
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 边界校验错误：INVALID_INPUT
type DomainError struct {
	Code    string // 错误代码（如 "NOT_READY", "SCHEMA_MISMATCH"）
	Message string // 错误消息
	Module  string // 模块名称（如 "bundle", "feature", "predictor"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 推理链路错误代码
	ErrorCodeSchemaMismatch = "SCHEMA_MISMATCH" // 归一化结果缺列，或制品缺少必需组件
	ErrorCodeNotReady       = "NOT_READY"       // 模型尚未加载完成
	ErrorCodeMalformedInput = "MALFORMED_INPUT" // 字段无法解析或越界（按缺失处理）
	ErrorCodeLoadFailure    = "LOAD_FAILURE"    // 制品文件缺失或损坏（进程级致命）

	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleCore      = "core"      // 领域类型模块
	ModuleBundle    = "bundle"    // 模型制品模块
	ModuleFeature   = "feature"   // 特征模块
	ModuleModel     = "model"     // 分类器模块
	ModulePredictor = "predictor" // 服务门面模块
	ModuleStore     = "store"     // 存储模块
	ModuleServer    = "server"    // HTTP 服务模块
	ModuleRules     = "rules"     // 边界校验模块
	ModuleClient    = "client"    // HTTP 客户端模块
)

// NewSchemaMismatchError 创建 SCHEMA_MISMATCH 错误
func NewSchemaMismatchError(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeSchemaMismatch, message)
}

// NewNotReadyError 创建 NOT_READY 错误
func NewNotReadyError(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeNotReady, message)
}

// NewMalformedInputError 创建 MALFORMED_INPUT 错误
func NewMalformedInputError(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeMalformedInput, message)
}

// NewLoadFailureError 创建 LOAD_FAILURE 错误
func NewLoadFailureError(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeLoadFailure, message)
}

// NewInvalidInputError 创建 INVALID_INPUT 错误
func NewInvalidInputError(module, message string) *DomainError {
	return NewDomainError(module, ErrorCodeInvalidInput, message)
}

// 通用错误检查函数

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsSchemaMismatch 检查错误是否为 SCHEMA_MISMATCH
func IsSchemaMismatch(err error) bool {
	return hasCode(err, ErrorCodeSchemaMismatch)
}

// IsNotReady 检查错误是否为 NOT_READY
func IsNotReady(err error) bool {
	return hasCode(err, ErrorCodeNotReady)
}

// IsMalformedInput 检查错误是否为 MALFORMED_INPUT
func IsMalformedInput(err error) bool {
	return hasCode(err, ErrorCodeMalformedInput)
}

// IsLoadFailure 检查错误是否为 LOAD_FAILURE
func IsLoadFailure(err error) bool {
	return hasCode(err, ErrorCodeLoadFailure)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}
