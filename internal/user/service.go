package user

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/SlpAus/keyforge-decks-backend/internal/email"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/apperr"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/config"
	"github.com/SlpAus/keyforge-decks-backend/internal/platform/database"
	"github.com/SlpAus/keyforge-decks-backend/pkg/token"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// --- Domain Errors ---
var (
	ErrEmailTaken     = apperr.Conflict("This email is already taken.")
	ErrUsernameTaken  = apperr.Conflict("This username is already taken.")
	ErrBadCredentials = apperr.Unauthorized("Incorrect email or password.")
	ErrCodeExpired    = apperr.BadRequest("This code has expired or is invalid.")
	ErrCodeStoreDown  = apperr.Unavailable("Codes are temporarily unavailable, please try again later.")
)

// minPasswordLength 是密码的最短长度
const minPasswordLength = 8

var usernameRegex = regexp.MustCompile(`^(\d|\w|-|_)+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	return v
}

// registrationMessages 把校验失败的字段和规则映射为返回给用户的消息
var registrationMessages = map[string]string{
	"Password.min":      "Password is too short.",
	"Email.required":    "Email is blank.",
	"Username.required": "Username is blank.",
	"Username.username": "Username is malformed.",
}

func validateRegistration(reg Registration) error {
	err := validate.Struct(reg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if msg, ok := registrationMessages[fe.Field()+"."+fe.Tag()]; ok {
			return apperr.BadRequest(msg)
		}
		return apperr.BadRequest(fe.Error())
	}
	return apperr.BadRequest(err.Error())
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func emailLinks() email.Links {
	if config.Cfg == nil {
		return email.Links{}
	}
	return email.Links{BaseURL: config.Cfg.Server.BaseURL}
}

func tokenTTL() time.Duration {
	if config.Cfg == nil || config.Cfg.Auth.TokenTTL <= 0 {
		return 72 * time.Hour
	}
	return config.Cfg.Auth.TokenTTL
}

// --- Lookups ---

// FindByID 根据ID查找用户，不存在时返回 nil
func FindByID(db *gorm.DB, id string) (*KeyUser, error) {
	return findOne(db.Where("id = ?", id))
}

// FindByUsername 不区分大小写地按用户名查找
func FindByUsername(db *gorm.DB, username string) (*KeyUser, error) {
	return findOne(db.Where("LOWER(username) = ?", strings.ToLower(username)))
}

// FindByEmail 不区分大小写地按邮箱查找
func FindByEmail(db *gorm.DB, address string) (*KeyUser, error) {
	return findOne(db.Where("LOWER(email) = ?", strings.ToLower(address)))
}

func findOne(q *gorm.DB) (*KeyUser, error) {
	var u KeyUser
	if err := q.First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("无法查询用户: %w", err)
	}
	return &u, nil
}

// --- Registration & Login ---

// Register 校验并创建新用户，随后发送邮箱验证邮件
func Register(reg Registration) (*KeyUser, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Username = strings.TrimSpace(reg.Username)

	// 1. 字段校验
	if err := validateRegistration(reg); err != nil {
		return nil, err
	}

	// 2. 唯一性校验
	if existing, err := FindByEmail(database.DB, reg.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}
	if existing, err := FindByUsername(database.DB, reg.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}

	// 3. 哈希密码并保存
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("无法哈希密码: %w", err)
	}
	u := KeyUser{
		ID:                           uuid.NewString(),
		Username:                     reg.Username,
		Email:                        reg.Email,
		Password:                     string(hash),
		Type:                         TypeUser,
		PublicContactInfo:            blankToNil(reg.PublicContactInfo),
		AllowUsersToSeeDeckOwnership: reg.AllowUsersToSeeDeckOwnership,
		Country:                      blankToNil(reg.Country),
	}
	if err := database.DB.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("无法创建用户: %w", err)
	}

	// 4. 验证邮件失败不影响注册
	if err := SendVerifyEmail(&u, u.Email); err != nil {
		log.Warn().Err(err).Str("user", u.Username).Msg("注册后发送验证邮件失败")
	}
	return &u, nil
}

// Login 校验邮箱和密码，返回登录令牌
func Login(req LoginRequest) (string, *KeyUser, error) {
	u, err := FindByEmail(database.DB, strings.TrimSpace(req.Email))
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return "", nil, ErrBadCredentials
	}
	signed, err := token.GenerateJWT(u.ID, u.Username, tokenTTL())
	if err != nil {
		return "", nil, fmt.Errorf("无法签发登录令牌: %w", err)
	}
	return signed, u, nil
}

// --- Profiles ---

// FindUserProfile 返回用户的公开资料，viewer 是当前登录用户（可以为 nil）
func FindUserProfile(username string, viewer *KeyUser) (*Profile, error) {
	u, err := FindByUsername(database.DB, username)
	if err != nil || u == nil {
		return nil, err
	}
	isMe := viewer != nil && strings.EqualFold(viewer.Username, username)
	p := u.ToProfile(isMe)
	return &p, nil
}

// UpdateUserProfile 修改当前用户的资料
func UpdateUserProfile(viewer *KeyUser, update ProfileUpdate) error {
	if viewer == nil {
		return apperr.Unauthorized("Please log in.")
	}
	err := database.DB.Model(&KeyUser{}).Where("id = ?", viewer.ID).Updates(map[string]any{
		"public_contact_info":               blankToNil(update.PublicContactInfo),
		"allow_users_to_see_deck_ownership": update.AllowUsersToSeeDeckOwnership,
		"country":                           blankToNil(update.Country),
	}).Error
	if err != nil {
		return fmt.Errorf("无法更新用户资料: %w", err)
	}
	return nil
}

// --- Codes ---

func storeCode(prefix, value string) (string, error) {
	if !database.IsRedisHealthy() {
		return "", ErrCodeStoreDown
	}
	code := uuid.NewString()
	if err := database.RDB.Set(database.Ctx, prefix+code, value, codeTTL).Err(); err != nil {
		return "", fmt.Errorf("无法保存验证码: %w", err)
	}
	return code, nil
}

// takeCode 读取并删除验证码，过期或不存在时返回 ErrCodeExpired
func takeCode(prefix, code string) (string, error) {
	if !database.IsRedisHealthy() {
		return "", ErrCodeStoreDown
	}
	value, err := database.RDB.GetDel(database.Ctx, prefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeExpired
	}
	if err != nil {
		return "", fmt.Errorf("无法读取验证码: %w", err)
	}
	return value, nil
}

// SendResetPassword 为已注册的邮箱发送重置密码邮件。
// 邮箱不存在时静默返回，不泄露注册情况。
func SendResetPassword(address string) error {
	u, err := FindByEmail(database.DB, strings.TrimSpace(address))
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	code, err := storeCode(ResetCodeKeyPrefix, u.Email)
	if err != nil {
		return err
	}
	msg, err := email.ResetPasswordMessage(u.Email, emailLinks(), code)
	if err != nil {
		return err
	}
	return email.Enqueue(msg)
}

// ChangePassword 使用重置码设置新密码
func ChangePassword(code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperr.BadRequest("Password is too short.")
	}
	address, err := takeCode(ResetCodeKeyPrefix, code)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("无法哈希密码: %w", err)
	}
	result := database.DB.Model(&KeyUser{}).Where("LOWER(email) = ?", strings.ToLower(address)).Update("password", string(hash))
	if result.Error != nil {
		return fmt.Errorf("无法更新密码: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCodeExpired
	}
	return nil
}

// SendVerifyEmail 向当前用户自己的邮箱发送验证邮件
func SendVerifyEmail(viewer *KeyUser, address string) error {
	if viewer == nil {
		return apperr.Unauthorized("Please log in.")
	}
	if !strings.EqualFold(viewer.Email, strings.TrimSpace(address)) {
		return apperr.BadRequest(fmt.Sprintf("You don't have the email %s", address))
	}
	code, err := storeCode(VerifyCodeKeyPrefix, viewer.ID)
	if err != nil {
		return err
	}
	msg, err := email.VerifyEmailMessage(viewer.Email, emailLinks(), code)
	if err != nil {
		return err
	}
	return email.Enqueue(msg)
}

// VerifyEmail 使用验证码把邮箱标记为已验证
func VerifyEmail(code string) error {
	userID, err := takeCode(VerifyCodeKeyPrefix, code)
	if err != nil {
		return err
	}
	result := database.DB.Model(&KeyUser{}).Where("id = ?", userID).Update("email_verified", true)
	if result.Error != nil {
		return fmt.Errorf("无法验证邮箱: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCodeExpired
	}
	return nil
}

// MessageSeller 通过邮件把当前用户的消息转给卖家
func MessageSeller(viewer *KeyUser, req SellerMessageRequest) error {
	if viewer == nil {
		return apperr.Unauthorized("Please log in.")
	}
	seller, err := FindByUsername(database.DB, req.Username)
	if err != nil {
		return err
	}
	if seller == nil {
		return apperr.BadRequest(fmt.Sprintf("Couldn't find user with username %s", req.Username))
	}

	msgs, err := email.SellerMessages(email.SellerMessage{
		SellerEmail:    seller.Email,
		SenderUsername: viewer.Username,
		SenderEmail:    viewer.Email,
		DeckKeyforgeID: req.DeckKeyforgeID,
		DeckName:       req.DeckName,
		Message:        req.Message,
		CcSender:       seller.PublicContactInfo != nil,
	}, emailLinks())
	if err != nil {
		return err
	}
	for _, m := range msgs {
		if err := email.Enqueue(m); err != nil {
			return err
		}
	}
	return nil
}
