package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/pkg/token"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SyntheticEmailDomain 是用户名映射合成邮箱时使用的域名。
const SyntheticEmailDomain = "local.app"

// ErrUsernameTaken 表示注册时用户名已被占用。
var ErrUsernameTaken = errors.New("用户名已被占用")

// ErrBadCredentials 表示用户名或口令不正确。
// 两种情况共用一个错误，避免向调用方泄露用户名是否存在。
var ErrBadCredentials = errors.New("用户名或口令不正确")

// SyntheticEmail 将用户名映射为后端使用的合成邮箱地址。
func SyntheticEmail(username string) string {
	return fmt.Sprintf("%s@%s", username, SyntheticEmailDomain)
}

// CreateAccount 创建一个新的学生档案。
// 口令使用bcrypt散列，ID使用UUID v7，角色固定为student。
func CreateAccount(username, password, fullName string) (*Profile, error) {
	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成UUID v7: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("无法散列口令: %w", err)
	}

	newProfile := Profile{
		ID:           newUUID.String(),
		Username:     username,
		Email:        SyntheticEmail(username),
		FullName:     fullName,
		Role:         RoleStudent,
		PasswordHash: hash,
	}
	if err := database.DB.Create(&newProfile).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("无法创建档案: %w", err)
	}
	return &newProfile, nil
}

// Authenticate 校验用户名和口令，成功时返回对应的档案。
func Authenticate(username, password string) (*Profile, error) {
	var p Profile
	err := database.DB.Where("username = ?", username).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("查询档案失败: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &p, nil
}

// GetProfileByID 按ID获取档案，不存在时返回nil。
func GetProfileByID(id string) (*Profile, error) {
	var p Profile
	err := database.DB.Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询档案失败: %w", err)
	}
	return &p, nil
}

// ListProfiles 返回全部档案，按创建顺序。
// 排行榜沿用原始产品的口径：管理员也参与排名，所以这里不过滤角色。
func ListProfiles() ([]Profile, error) {
	var profiles []Profile
	if err := database.DB.Order("created_at asc").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("查询档案列表失败: %w", err)
	}
	return profiles, nil
}

// UpdateNote 更新档案的备注字段。这是档案唯一开放给本人的修改操作。
func UpdateNote(id, note string) error {
	err := database.DB.Model(&Profile{}).Where("id = ?", id).Update("note", note).Error
	if err != nil {
		return fmt.Errorf("更新备注失败: %w", err)
	}
	return nil
}

// --- 会话管理 ---

// IssueSession 为一个档案签发会话令牌。
// 签发不依赖Redis：签名和过期时间本身足以证明令牌有效，
// Redis只承载吊销名单，所以登录在Redis不可用时照常工作。
func IssueSession(p *Profile, ttl time.Duration) (string, error) {
	payload := token.SessionPayload{
		UserID:    p.ID,
		Role:      p.Role,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	return token.GenerateSessionToken(payload)
}

// RevokeSession 把一个令牌加入吊销名单。
func RevokeSession(tokenStr string) {
	if tokenStr == "" {
		return
	}
	if err := database.RDB.SAdd(database.Ctx, RevokedSessionsKey, tokenStr).Err(); err != nil {
		fmt.Printf("警告: 无法把会话登记到吊销名单: %v\n", err)
	}
}

// IsSessionActive 检查令牌是否已被吊销。
// Redis不健康时跳过该检查，仅依赖签名和过期时间，与排行榜降级策略保持一致。
func IsSessionActive(tokenStr string) bool {
	if !database.IsRedisHealthy() {
		return true
	}
	revoked, err := database.RDB.SIsMember(database.Ctx, RevokedSessionsKey, tokenStr).Result()
	if err != nil {
		return true
	}
	return !revoked
}
