package user

import (
	"net/http"

	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/gin-gonic/gin"
)

// GetYourUser 返回当前登录用户，匿名时返回 null
func GetYourUser(c *gin.Context) {
	c.JSON(http.StatusOK, CurrentUser(c))
}

// RegisterHandler 注册新用户
func RegisterHandler(c *gin.Context) {
	var reg Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		apperr.Respond(c, apperr.BadRequest("注册信息格式错误"))
		return
	}
	u, err := Register(reg)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// LoginHandler 登录并在响应头和响应体中返回令牌
func LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("登录信息格式错误"))
		return
	}
	signed, u, err := Login(req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Header(AuthHeader, "Bearer "+signed)
	c.JSON(http.StatusOK, gin.H{"token": signed, "user": u})
}

// GetUserProfile 返回公开的用户资料
func GetUserProfile(c *gin.Context) {
	p, err := FindUserProfile(c.Param("username"), CurrentUser(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if p == nil {
		apperr.Respond(c, apperr.NotFound("找不到该用户"))
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfileHandler 修改当前用户的资料
func UpdateProfileHandler(c *gin.Context) {
	var update ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		apperr.Respond(c, apperr.BadRequest("资料格式错误"))
		return
	}
	if err := UpdateUserProfile(CurrentUser(c), update); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestPasswordReset 发送重置密码邮件
func RequestPasswordReset(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("邮箱格式错误"))
		return
	}
	if err := SendResetPassword(req.Email); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangePasswordHandler 使用重置码修改密码
func ChangePasswordHandler(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("请求格式错误"))
		return
	}
	if err := ChangePassword(req.ResetCode, req.NewPassword); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestEmailVerification 向当前用户发送验证邮件
func RequestEmailVerification(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("邮箱格式错误"))
		return
	}
	if err := SendVerifyEmail(CurrentUser(c), req.Email); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// VerifyEmailHandler 使用验证码完成邮箱验证
func VerifyEmailHandler(c *gin.Context) {
	if err := VerifyEmail(c.Param("code")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MessageSellerHandler 给卖家发送消息
func MessageSellerHandler(c *gin.Context) {
	var req SellerMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("消息格式错误"))
		return
	}
	if err := MessageSeller(CurrentUser(c), req); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
