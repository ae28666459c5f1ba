package user

import "time"

// 定义与用户相关的Redis键名
const (
	// ResetCodeKeyPrefix 加上重置码，值为申请重置的邮箱
	// Key: user:reset_code:<code>
	ResetCodeKeyPrefix = "user:reset_code:"

	// VerifyCodeKeyPrefix 加上验证码，值为 "<用户ID>|<邮箱>"
	// Key: user:verify_code:<code>
	VerifyCodeKeyPrefix = "user:verify_code:"
)

// codeTTL 是重置码和验证码的有效期
const codeTTL = 24 * time.Hour
