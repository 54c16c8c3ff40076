package leaderboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SlpAus/study-tracker-backend/internal/entry"
	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/internal/scoring"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RebuildLeaderboards 从SQL全量重建Redis中的四个排行榜有序集合，
// 返回重建时账本中最后一个事件的ID作为检查点水位。
// 只重建当前窗口的键，已滚出窗口的旧键交给TTL回收。
func RebuildLeaderboards() (uint, error) {
	entry.LockLeaderboard()
	defer entry.UnlockLeaderboard()

	// 1. 确定重建水位
	var lastEvent entry.EntryEvent
	err := database.DB.Order("id desc").First(&lastEvent).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("无法确定重建水位: %w", err)
	}
	lastEventID := lastEvent.ID

	// 2. 读取全部日记录
	var entries []entry.DailyEntry
	if err := database.DB.Find(&entries).Error; err != nil {
		return 0, fmt.Errorf("无法读取日记录: %w", err)
	}

	now := time.Now()
	today := scoring.FormatDate(now)
	currentWeek := scoring.ISOWeekKey(now)
	monthPrefix := scoring.MonthKey(now)

	dayScores := make(map[string]int)
	weekScores := make(map[string]int)
	monthScores := make(map[string]int)
	totalScores := make(map[string]int)

	for _, e := range entries {
		totalScores[e.UserID] += e.TotalPoints
		if e.Date == today {
			dayScores[e.UserID] += e.TotalPoints
		}
		if t, err := scoring.ParseDate(e.Date); err == nil && scoring.ISOWeekKey(t) == currentWeek {
			weekScores[e.UserID] += e.TotalPoints
		}
		if strings.HasPrefix(e.Date, monthPrefix) {
			monthScores[e.UserID] += e.TotalPoints
		}
	}

	dayKey := entry.LeaderboardDayKey(today)
	weekKey := entry.LeaderboardWeekKey(today)
	monthKey := entry.LeaderboardMonthKey(today)

	// 3. 原子地替换四个有序集合
	pipe := database.RDB.TxPipeline()
	pipe.Del(database.Ctx, dayKey, weekKey, monthKey, entry.LeaderboardTotalKey)
	addScores(pipe, dayKey, dayScores)
	pipe.Expire(database.Ctx, dayKey, entry.DayKeyTTL)
	addScores(pipe, weekKey, weekScores)
	pipe.Expire(database.Ctx, weekKey, entry.WeekKeyTTL)
	addScores(pipe, monthKey, monthScores)
	pipe.Expire(database.Ctx, monthKey, entry.MonthKeyTTL)
	addScores(pipe, entry.LeaderboardTotalKey, totalScores)

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return 0, fmt.Errorf("无法写入重建后的排行榜: %w", err)
	}

	fmt.Printf("排行榜重建完成，共 %d 条日记录，水位 event ID %d。\n", len(entries), lastEventID)
	return lastEventID, nil
}

func addScores(pipe redis.Pipeliner, key string, scores map[string]int) {
	if len(scores) == 0 {
		return
	}
	members := make([]redis.Z, 0, len(scores))
	for userID, points := range scores {
		members = append(members, redis.Z{Score: float64(points), Member: userID})
	}
	pipe.ZAdd(database.Ctx, key, members...)
}
