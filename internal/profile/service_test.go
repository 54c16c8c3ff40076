package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/pkg/token"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("无法打开内存数据库: %v", err)
	}
	database.DB = db

	if err := db.AutoMigrate(&Profile{}); err != nil {
		t.Fatalf("无法迁移profiles表: %v", err)
	}
}

func TestSyntheticEmail(t *testing.T) {
	if got := SyntheticEmail("aylin"); got != "aylin@local.app" {
		t.Errorf("got %s, 期望 aylin@local.app", got)
	}
}

func TestCreateAccount(t *testing.T) {
	setupTestDB(t)

	p, err := CreateAccount("aylin", "secret1", "Aylin Yilmaz")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if p.Role != RoleStudent {
		t.Errorf("role = %s, 期望 student", p.Role)
	}
	if p.Email != "aylin@local.app" {
		t.Errorf("email = %s", p.Email)
	}
	if p.ID == "" {
		t.Error("ID不应为空")
	}
	if string(p.PasswordHash) == "secret1" {
		t.Error("口令不应明文存储")
	}

	t.Run("用户名重复时返回ErrUsernameTaken", func(t *testing.T) {
		_, err := CreateAccount("aylin", "another", "Someone Else")
		if !errors.Is(err, ErrUsernameTaken) {
			t.Errorf("期望 ErrUsernameTaken, 得到 %v", err)
		}
	})
}

func TestAuthenticate(t *testing.T) {
	setupTestDB(t)

	if _, err := CreateAccount("baran", "secret1", "Baran Kaya"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	t.Run("正确口令通过校验", func(t *testing.T) {
		p, err := Authenticate("baran", "secret1")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if p.Username != "baran" {
			t.Errorf("username = %s", p.Username)
		}
	})

	t.Run("错误口令与未知用户名返回同一个错误", func(t *testing.T) {
		_, errWrongPass := Authenticate("baran", "wrong")
		_, errNoUser := Authenticate("nobody", "secret1")
		if !errors.Is(errWrongPass, ErrBadCredentials) || !errors.Is(errNoUser, ErrBadCredentials) {
			t.Errorf("期望两者都是 ErrBadCredentials, 得到 %v / %v", errWrongPass, errNoUser)
		}
	})
}

func TestUpdateNote(t *testing.T) {
	setupTestDB(t)

	p, err := CreateAccount("ceren", "secret1", "Ceren Demir")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	if err := UpdateNote(p.ID, "hedef: 120 soru"); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}

	got, err := GetProfileByID(p.ID)
	if err != nil {
		t.Fatalf("GetProfileByID: %v", err)
	}
	if got.Note != "hedef: 120 soru" {
		t.Errorf("note = %q", got.Note)
	}
}

func TestGetProfileByIDMissing(t *testing.T) {
	setupTestDB(t)

	got, err := GetProfileByID("no-such-id")
	if err != nil {
		t.Fatalf("GetProfileByID: %v", err)
	}
	if got != nil {
		t.Errorf("不存在的档案应返回nil, 得到 %+v", got)
	}
}

// Redis掉线期间登录的用户，在Redis恢复后会话必须依然有效。
// 签发因此完全不依赖Redis，吊销名单缺席时令牌默认有效。
func TestSessionSurvivesRedisOutage(t *testing.T) {
	setupTestDB(t)
	token.GenerateSecretKey()

	p, err := CreateAccount("aylin", "secret1", "Aylin Yilmaz")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	// 模拟Redis掉线，此时签发不应报错也不应触碰Redis
	database.UpdateStatus(false, "")
	defer database.UpdateStatus(true, "")

	tokenStr, err := IssueSession(p, time.Hour)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	payload, err := token.ValidateSessionToken(tokenStr, time.Now())
	if err != nil {
		t.Fatalf("ValidateSessionToken: %v", err)
	}
	if payload.UserID != p.ID || payload.Role != RoleStudent {
		t.Errorf("payload = %+v, 期望用户 %s", payload, p.ID)
	}

	if !IsSessionActive(tokenStr) {
		t.Error("Redis不可用时会话应视为有效")
	}
}
