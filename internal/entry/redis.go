package entry

import (
	"sync"
	"time"

	"github.com/SlpAus/study-tracker-backend/internal/scoring"
)

// leaderboardMutex 串行化对排行榜有序集合的写入与整体重建。
var leaderboardMutex sync.Mutex

// LockLeaderboard 获取排行榜写锁。
func LockLeaderboard() {
	leaderboardMutex.Lock()
}

// UnlockLeaderboard 释放排行榜写锁。
func UnlockLeaderboard() {
	leaderboardMutex.Unlock()
}

// Redis中排行榜有序集合的键。
// member是用户ID，score是对应窗口内的累计总分。
// 带日期限定的键会自然地随窗口滚动，过期的键由TTL回收。
const (
	// LeaderboardTotalKey 是全期累计排行榜 (ZSET)
	LeaderboardTotalKey = "leaderboard:total"

	dayKeyPrefix   = "leaderboard:day:"
	weekKeyPrefix  = "leaderboard:week:"
	monthKeyPrefix = "leaderboard:month:"
)

// 带日期的排行榜键的保留期。窗口滚过之后键就不再被读取，
// 留出富余时间以便调试后自动回收。
const (
	DayKeyTTL   = 48 * time.Hour
	WeekKeyTTL  = 14 * 24 * time.Hour
	MonthKeyTTL = 62 * 24 * time.Hour
)

// LeaderboardDayKey 返回指定日期的单日排行榜键。
func LeaderboardDayKey(date string) string {
	return dayKeyPrefix + date
}

// LeaderboardWeekKey 返回包含指定日期的ISO周的排行榜键。
func LeaderboardWeekKey(date string) string {
	t, err := scoring.ParseDate(date)
	if err != nil {
		// 日期在入库前已通过校验，这里只做兜底
		return weekKeyPrefix + "invalid"
	}
	return weekKeyPrefix + scoring.ISOWeekKey(t)
}

// LeaderboardMonthKey 返回指定日期所在自然月的排行榜键。
func LeaderboardMonthKey(date string) string {
	if len(date) < 7 {
		return monthKeyPrefix + "invalid"
	}
	return monthKeyPrefix + date[:7]
}
