package errors

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

// 权限域错误码 (1000+)，与HTTP语义的错误区分开，便于前端针对性提示
const (
	CodePolicySync       = 1001 // 策略存储与内存快照出现分歧
	CodeStoreUnavailable = 1002 // 策略存储不可用，沿用当前快照
)
