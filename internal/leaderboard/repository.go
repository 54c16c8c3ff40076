package leaderboard

import (
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SlpAus/study-tracker-backend/internal/entry"
	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/internal/scoring"
)

// windowScores 汇集同一时刻四个窗口的积分映射 (user_id -> 积分)
type windowScores struct {
	today map[string]int
	week  map[string]int
	month map[string]int
	total map[string]int
}

func zSliceToMap(zs []redis.Z) map[string]int {
	scores := make(map[string]int, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		scores[member] = int(math.Round(z.Score))
	}
	return scores
}

// fetchScoresFromRedis 用一个流水线一次读出四个排行榜有序集合。
// 键不存在（窗口内还没有任何保存）时对应映射为空，不算错误。
func fetchScoresFromRedis(now time.Time) (*windowScores, error) {
	today := scoring.FormatDate(now)

	pipe := database.RDB.Pipeline()
	dayCmd := pipe.ZRangeWithScores(database.Ctx, entry.LeaderboardDayKey(today), 0, -1)
	weekCmd := pipe.ZRangeWithScores(database.Ctx, entry.LeaderboardWeekKey(today), 0, -1)
	monthCmd := pipe.ZRangeWithScores(database.Ctx, entry.LeaderboardMonthKey(today), 0, -1)
	totalCmd := pipe.ZRangeWithScores(database.Ctx, entry.LeaderboardTotalKey, 0, -1)
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return nil, fmt.Errorf("无法从Redis读取排行榜: %w", err)
	}

	return &windowScores{
		today: zSliceToMap(dayCmd.Val()),
		week:  zSliceToMap(weekCmd.Val()),
		month: zSliceToMap(monthCmd.Val()),
		total: zSliceToMap(totalCmd.Val()),
	}, nil
}

// aggregateWindowFromDB 对daily_entries做一个窗口内的分组求和。
// windowStart为空字符串时聚合全部历史。
func aggregateWindowFromDB(windowStart string) (map[string]int, error) {
	var rows []struct {
		UserID string
		Points int
	}

	query := database.DB.Model(&entry.DailyEntry{}).
		Select("user_id, SUM(total_points) AS points").
		Group("user_id")
	if windowStart != "" {
		query = query.Where("date >= ?", windowStart)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("无法从数据库聚合排行榜: %w", err)
	}

	scores := make(map[string]int, len(rows))
	for _, row := range rows {
		scores[row.UserID] = row.Points
	}
	return scores, nil
}

// fetchScoresFromDB 是Redis不可用时的降级路径，逐窗口聚合出同样的四份积分。
func fetchScoresFromDB(now time.Time) (*windowScores, error) {
	today := scoring.FormatDate(now)

	todayScores, err := aggregateWindowFromDB(today)
	if err != nil {
		return nil, err
	}
	weekScores, err := aggregateWindowFromDB(scoring.StartOfCalendarWeek(now))
	if err != nil {
		return nil, err
	}
	monthScores, err := aggregateWindowFromDB(scoring.StartOfMonth(now))
	if err != nil {
		return nil, err
	}
	totalScores, err := aggregateWindowFromDB("")
	if err != nil {
		return nil, err
	}

	return &windowScores{
		today: todayScores,
		week:  weekScores,
		month: monthScores,
		total: totalScores,
	}, nil
}
