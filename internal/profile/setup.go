package profile

import (
	"fmt"

	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
)

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Profile{}); err != nil {
		return fmt.Errorf("无法迁移profiles表: %w", err)
	}
	fmt.Println("Profile数据库表迁移成功。")
	return nil
}

// clearStaleSessions 清空Redis中的会话吊销名单。
// 进程重启会重新生成HMAC密钥，之前签发的令牌全部失效，
// 名单里的旧令牌只会白占内存。
func clearStaleSessions() error {
	if err := database.RDB.Del(database.Ctx, RevokedSessionsKey).Err(); err != nil {
		return fmt.Errorf("无法清理会话吊销名单: %w", err)
	}
	return nil
}

// PrimeCachedDB 是profile模块的初始化总入口
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := clearStaleSessions(); err != nil {
		return err
	}
	return nil
}
