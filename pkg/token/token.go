package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// secretKey 是签发和校验令牌使用的HMAC密钥
var (
	keyMu     sync.RWMutex
	secretKey []byte
)

// ErrInvalidToken 表示令牌无法通过校验
var ErrInvalidToken = errors.New("无效的登录令牌")

// Claims 定义了登录令牌中携带的数据
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// SetSecret 设置签名密钥。为空时生成一个随机密钥，重启后旧令牌全部失效。
func SetSecret(secret string) {
	keyMu.Lock()
	defer keyMu.Unlock()
	if secret != "" {
		secretKey = []byte(secret)
		return
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	secretKey = key
	log.Warn().Msg("未配置JWT密钥，已生成临时密钥")
}

func currentKey() []byte {
	keyMu.RLock()
	defer keyMu.RUnlock()
	return secretKey
}

// GenerateJWT 为用户签发登录令牌。测试中可以替换它。
var GenerateJWT = func(userID, username string, ttl time.Duration) (string, error) {
	key := currentKey()
	if len(key) == 0 {
		return "", errors.New("JWT密钥尚未设置")
	}
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// ParseJWT 校验令牌并返回其中的数据
func ParseJWT(tokenString string) (*Claims, error) {
	key := currentKey()
	if len(key) == 0 {
		return nil, errors.New("JWT密钥尚未设置")
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
