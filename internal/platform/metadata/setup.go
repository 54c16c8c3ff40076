package metadata

import (
	"fmt"
	"strconv"

	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
)

// PrimeDB 负责初始化metadata模块的数据库部分
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Metadata{}); err != nil {
		return fmt.Errorf("无法迁移metadata表: %w", err)
	}
	fmt.Println("Metadata数据库表迁移成功。")
	return nil
}

// WarmupCache 将Redis中的处理进度检查点重置为上次重建覆盖到的事件ID。
// 它只在缓存重建流程中被调用，此时排行榜数据与该检查点严格一致。
func WarmupCache(lastEventID uint) error {
	err := database.RDB.Set(database.Ctx, RedisLastProcessedEventIDKey, strconv.FormatUint(uint64(lastEventID), 10), 0).Err()
	if err != nil {
		return fmt.Errorf("无法写入Redis处理进度检查点: %w", err)
	}
	return nil
}

// GetLastProcessedEventID 从Redis读取实时处理进度检查点。
func GetLastProcessedEventID() (uint, error) {
	valueStr, err := database.RDB.Get(database.Ctx, RedisLastProcessedEventIDKey).Result()
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(valueStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("无法解析Redis检查点的值: %w", err)
	}
	return uint(id), nil
}
