package user

import (
	"time"
)

// UserType 区分普通用户和管理员
type UserType string

const (
	TypeUser  UserType = "USER"
	TypeAdmin UserType = "ADMIN"
)

// KeyUser 定义了用户在数据库中的持久化模型
type KeyUser struct {
	// ID 是用户的UUID主键
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	// Username 和 Email 的唯一性按不区分大小写校验
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`

	// Password 是 bcrypt 哈希，从不返回给客户端
	Password string `gorm:"not null" json:"-"`

	Type                         UserType `gorm:"type:varchar(10);default:USER" json:"type"`
	PublicContactInfo            *string  `json:"publicContactInfo"`
	AllowUsersToSeeDeckOwnership bool     `json:"allowUsersToSeeDeckOwnership"`
	Country                      *string  `json:"country"`
	EmailVerified                bool     `json:"emailVerified"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// IsAdmin 报告用户是否为管理员
func (u KeyUser) IsAdmin() bool {
	return u.Type == TypeAdmin
}

// Registration 是注册请求。字段顺序决定了校验错误的优先级。
type Registration struct {
	Password                     string  `json:"password" validate:"min=8"`
	Email                        string  `json:"email" validate:"required"`
	Username                     string  `json:"username" validate:"required,username"`
	PublicContactInfo            *string `json:"publicContactInfo"`
	AllowUsersToSeeDeckOwnership bool    `json:"allowUsersToSeeDeckOwnership"`
	Country                      *string `json:"country"`
}

// Profile 是公开的用户资料
type Profile struct {
	ID                           string  `json:"id"`
	Username                     string  `json:"username"`
	PublicContactInfo            *string `json:"publicContactInfo"`
	AllowUsersToSeeDeckOwnership bool    `json:"allowUsersToSeeDeckOwnership"`
	Country                      *string `json:"country"`
	// Email 只在查看自己的资料时返回
	Email *string `json:"email,omitempty"`
}

// ToProfile 转换为公开资料，isMe 为真时包含邮箱
func (u KeyUser) ToProfile(isMe bool) Profile {
	p := Profile{
		ID:                           u.ID,
		Username:                     u.Username,
		PublicContactInfo:            u.PublicContactInfo,
		AllowUsersToSeeDeckOwnership: u.AllowUsersToSeeDeckOwnership,
		Country:                      u.Country,
	}
	if isMe {
		email := u.Email
		p.Email = &email
	}
	return p
}

// ProfileUpdate 是用户可以修改的资料字段
type ProfileUpdate struct {
	PublicContactInfo            *string `json:"publicContactInfo"`
	AllowUsersToSeeDeckOwnership bool    `json:"allowUsersToSeeDeckOwnership"`
	Country                      *string `json:"country"`
}

// LoginRequest 是登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest 使用重置码设置新密码
type ChangePasswordRequest struct {
	ResetCode   string `json:"resetCode" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// EmailRequest 携带一个邮箱地址
type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// SellerMessageRequest 是发给卖家的消息
type SellerMessageRequest struct {
	Username       string `json:"username" binding:"required"`
	DeckKeyforgeID string `json:"deckKeyforgeId" binding:"required"`
	DeckName       string `json:"deckName"`
	Message        string `json:"message" binding:"required"`
}
