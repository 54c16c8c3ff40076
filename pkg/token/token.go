package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// secretKey 是一个全局变量，用于存储服务器在启动时生成的32字节密钥。
// 密钥只存在于内存中，服务重启后所有已签发的会话自动失效。
var secretKey []byte

// SessionPayload 定义了会话令牌中需要被签名的数据结构。
// 它在登录时被序列化进Cookie，在后续请求中被反序列化和校验。
type SessionPayload struct {
	UserID    string `json:"u"`
	Role      string `json:"r"`
	ExpiresAt int64  `json:"e"` // Unix秒
}

// ErrInvalidToken 表示令牌格式错误或签名不匹配。
var ErrInvalidToken = errors.New("会话令牌无效")

// ErrExpiredToken 表示令牌签名有效但已过期。
var ErrExpiredToken = errors.New("会话令牌已过期")

// GenerateSecretKey 生成一个密码学安全的32字节随机密钥。
func GenerateSecretKey() {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	if err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	secretKey = key
	fmt.Println("HMAC密钥已成功生成。")
}

// GenerateSessionToken 为一个给定的SessionPayload生成完整的令牌字符串。
// 令牌格式为 "payloadB64.signatureB64"。
func GenerateSessionToken(payload SessionPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", errors.New("无法序列化会话payload")
	}

	// 使用HMAC-SHA256和密钥对payload进行签名
	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	signature := mac.Sum(nil)

	encodedPayload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	encodedSignature := base64.RawURLEncoding.EncodeToString(signature)
	return encodedPayload + "." + encodedSignature, nil
}

// ValidateSessionToken 校验一个令牌字符串，成功时返回其中的payload。
// 校验分两步：先做时间恒定的签名比较，再检查过期时间。
func ValidateSessionToken(tokenStr string, now time.Time) (*SessionPayload, error) {
	parts := strings.SplitN(tokenStr, ".", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidToken
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidToken
	}
	actualSignature, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}

	// 重新计算预期的签名，并使用 hmac.Equal 进行安全的、时间恒定的比较，防止时序攻击
	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	expectedSignature := mac.Sum(nil)
	if !hmac.Equal(expectedSignature, actualSignature) {
		return nil, ErrInvalidToken
	}

	var payload SessionPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, ErrInvalidToken
	}

	if payload.ExpiresAt <= now.Unix() {
		return nil, ErrExpiredToken
	}
	return &payload, nil
}
