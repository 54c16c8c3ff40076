package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/SlpAus/study-tracker-backend/internal/entry"
	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/internal/profile"
	"github.com/SlpAus/study-tracker-backend/internal/scoring"
)

// PeriodTotal 是排行榜专属的全期累计周期，不对应任何日期窗口
const PeriodTotal = "total"

// ErrUnknownPeriod 表示请求了一个不存在的排行榜周期
var ErrUnknownPeriod = errors.New("未知的排行榜周期")

const (
	sourceRedis = "redis"
	sourceDB    = "database"
)

// resolvePeriod 校验周期参数并返回展示用的窗口起点和行内排序键。
// 全期周期的窗口起点为空字符串。
func resolvePeriod(period string, now time.Time) (windowStart string, sortKey func(Row) int, err error) {
	switch period {
	case string(scoring.PeriodToday), "":
		return scoring.FormatDate(now), func(r Row) int { return r.TodayPoints }, nil
	case string(scoring.PeriodCalendarWeek):
		return scoring.StartOfCalendarWeek(now), func(r Row) int { return r.WeekPoints }, nil
	case string(scoring.PeriodMonth):
		return scoring.StartOfMonth(now), func(r Row) int { return r.MonthPoints }, nil
	case PeriodTotal:
		return "", func(r Row) int { return r.TotalPoints }, nil
	}
	return "", nil, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
}

// GetBoard 构建指定周期的完整排行榜。每一行都带齐四个窗口的积分，
// 名次和奖牌按请求周期对应的那一列排序。
// Redis健康时走缓存，否则降级到SQL聚合；两条路径产生相同的榜单。
func GetBoard(period string, now time.Time) (*Board, error) {
	windowStart, sortKey, err := resolvePeriod(period, now)
	if err != nil {
		return nil, err
	}

	profiles, err := profile.ListProfiles()
	if err != nil {
		return nil, fmt.Errorf("无法获取用户列表: %w", err)
	}

	source := sourceDB
	var scores *windowScores
	if database.IsRedisHealthy() {
		scores, err = fetchScoresFromRedis(now)
		if err == nil {
			source = sourceRedis
		} else {
			fmt.Printf("警告: 排行榜缓存读取失败，降级到数据库: %v\n", err)
		}
	}
	if source == sourceDB {
		scores, err = fetchScoresFromDB(now)
		if err != nil {
			return nil, err
		}
	}

	// profiles已按注册时间升序排列，稳定排序保证同分名次不抖动
	rows := make([]Row, len(profiles))
	summary := Summary{}
	for i, p := range profiles {
		rows[i] = Row{
			UserID:      p.ID,
			Username:    p.Username,
			FullName:    p.FullName,
			TodayPoints: scores.today[p.ID],
			WeekPoints:  scores.week[p.ID],
			MonthPoints: scores.month[p.ID],
			TotalPoints: scores.total[p.ID],
		}
		summary.TodayTotal += rows[i].TodayPoints
		summary.WeekTotal += rows[i].WeekPoints
		summary.MonthTotal += rows[i].MonthPoints
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return sortKey(rows[i]) > sortKey(rows[j])
	})

	participants := 0
	medals := []string{MedalGold, MedalSilver, MedalBronze}
	for i := range rows {
		rows[i].Rank = i + 1
		if sortKey(rows[i]) > 0 {
			participants++
			if i < len(medals) {
				rows[i].Medal = medals[i]
			}
		}
	}

	normalized := period
	if normalized == "" {
		normalized = string(scoring.PeriodToday)
	}
	return &Board{
		Period:       normalized,
		WindowStart:  windowStart,
		Source:       source,
		Rows:         rows,
		Participants: participants,
		Summary:      summary,
	}, nil
}

// GetActivity 返回最近的保存事件流，按时间倒序。
func GetActivity(limit int) ([]ActivityItem, error) {
	var events []entry.EntryEvent
	if err := database.DB.Order("id desc").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("无法查询保存事件: %w", err)
	}

	profiles, err := profile.ListProfiles()
	if err != nil {
		return nil, fmt.Errorf("无法获取用户列表: %w", err)
	}
	byID := make(map[string]profile.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	items := make([]ActivityItem, 0, len(events))
	for _, ev := range events {
		item := ActivityItem{
			EventID: ev.ID,
			UserID:  ev.UserID,
			Date:    ev.Date,
			Subjects: map[string]int{
				"kk": ev.KK, "rsl": ev.RSL, "prt": ev.PRT, "cvs": ev.CVS,
				"orc": ev.ORC, "thc": ev.THC, "alm": ev.ALM, "trk": ev.TRK,
			},
			TotalDelta: ev.TotalDelta,
			NewTotal:   ev.NewTotal,
			CreatedAt:  ev.CreatedAt,
		}
		if p, ok := byID[ev.UserID]; ok {
			item.Username = p.Username
			item.FullName = p.FullName
		}
		items = append(items, item)
	}
	return items, nil
}
