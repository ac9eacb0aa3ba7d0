package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 错误分类：
//   - INVALID_INPUT：topN 非法、记录校验失败
//   - MISSING_ARTIFACT：融合模型 / scaler 无法加载，调用方必须显式处理
//   - NOT_FOUND：存储中 key 不存在
//   - NOT_SUPPORTED：后端不支持的操作
//
// 数据稀疏（未知用户 / 物品、候选集为空、空文本）不是错误，由各打分器返回 0 处理。
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "MISSING_ARTIFACT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "model"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is 按 Module + Code 比较，使 errors.Is(err, ErrMissingArtifact) 对包装后的错误也成立。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Module == "" || e.Module == t.Module)
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
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

// WrapDomainError 创建携带底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound        = "NOT_FOUND"        // 资源不存在
	ErrorCodeNotSupported    = "NOT_SUPPORTED"    // 操作不支持
	ErrorCodeInvalidInput    = "INVALID_INPUT"    // 输入无效
	ErrorCodeMissingArtifact = "MISSING_ARTIFACT" // 模型产物缺失或损坏
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleCatalog = "catalog" // 目录
	ModuleRating  = "rating"  // 评分
	ModuleUser    = "user"    // 用户
	ModuleModel   = "model"   // 融合模型
	ModuleEngine  = "engine"  // 推荐引擎
)

var (
	// ErrMissingArtifact 匹配任意模块的 MISSING_ARTIFACT 错误
	ErrMissingArtifact = &DomainError{Code: ErrorCodeMissingArtifact, Message: "missing artifact"}

	// ErrInvalidInput 匹配任意模块的 INVALID_INPUT 错误
	ErrInvalidInput = &DomainError{Code: ErrorCodeInvalidInput, Message: "invalid input"}
)

// IsMissingArtifact 检查错误是否为 MISSING_ARTIFACT
func IsMissingArtifact(err error) bool {
	return errors.Is(err, ErrMissingArtifact)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}
