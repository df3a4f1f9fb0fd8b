package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 %w 包装链
//
// 使用场景：
//   - Store 错误：UNAVAILABLE, INVALID_VECTOR
//   - 推荐错误：INSUFFICIENT_HISTORY, NO_CANDIDATES
//   - 其他领域错误
type DomainError struct {
	Code    string // 错误代码（如 "NO_CANDIDATES", "UNAVAILABLE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "recommend"）
	Err     error  // 底层原因（可选），支持 errors.Is/As
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建带底层原因的领域错误，cause 可通过 errors.Unwrap 获取。
func WrapDomainError(module, code, message string, cause error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// GetDomainError 获取 DomainError，如果不是（含包装链）则返回 nil
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

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 推荐链路专用错误代码
	ErrorCodeInvalidVector       = "INVALID_VECTOR"       // 向量维度/内容非法
	ErrorCodeInsufficientHistory = "INSUFFICIENT_HISTORY" // 用户游玩历史为空
	ErrorCodeNoCandidates        = "NO_CANDIDATES"        // 向量检索无候选（索引数据异常）
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 向量/KV 存储模块
	ModuleEmbedding = "embedding" // 向量化模块
	ModuleHistory   = "history"   // 游玩历史模块
	ModuleMetadata  = "metadata"  // 物品元数据模块
	ModuleRecommend = "recommend" // 推荐引擎模块
)

// 错误检查函数

func isCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return isCode(err, ErrorCodeNotFound) }

// IsUnavailable 检查错误是否为 UNAVAILABLE（基础设施不可用，需原样上抛）
func IsUnavailable(err error) bool { return isCode(err, ErrorCodeUnavailable) }

// IsInvalidVector 检查错误是否为 INVALID_VECTOR
func IsInvalidVector(err error) bool { return isCode(err, ErrorCodeInvalidVector) }

// IsInsufficientHistory 检查错误是否为 INSUFFICIENT_HISTORY（提示用户先同步游戏库）
func IsInsufficientHistory(err error) bool { return isCode(err, ErrorCodeInsufficientHistory) }

// IsNoCandidates 检查错误是否为 NO_CANDIDATES（索引为空或数据异常，区别于"无匹配"）
func IsNoCandidates(err error) bool { return isCode(err, ErrorCodeNoCandidates) }
