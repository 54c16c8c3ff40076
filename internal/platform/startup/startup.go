package startup

import (
	"fmt"

	"github.com/SlpAus/study-tracker-backend/internal/entry"
	"github.com/SlpAus/study-tracker-backend/internal/leaderboard"
	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/study-tracker-backend/internal/profile"
	"github.com/SlpAus/study-tracker-backend/internal/subject"
)

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := metadata.PrimeDB(); err != nil {
		return err
	}
	if err := profile.PrimeCachedDB(); err != nil {
		return err
	}
	if err := subject.PrimeCachedDB(); err != nil {
		return err
	}
	if err := entry.PrimeDB(); err != nil {
		return err
	}

	// 首次启动也要把Redis排行榜和SQL对齐
	if err := RebuildCache(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 在运行时热重建Redis排行榜缓存，
// 并把重建水位同时写入SQL元数据和Redis检查点。
func RebuildCache() error {
	fmt.Println("开始排行榜缓存重建...")

	lastEventID, err := leaderboard.RebuildLeaderboards()
	if err != nil {
		return err
	}

	if err := metadata.SetLastRebuildEventID(database.DB, lastEventID); err != nil {
		return fmt.Errorf("无法持久化重建水位: %w", err)
	}
	if err := metadata.WarmupCache(lastEventID); err != nil {
		return fmt.Errorf("无法写入Redis检查点: %w", err)
	}

	fmt.Println("排行榜缓存重建完成。")
	return nil
}
