package scoring

import (
	"fmt"
	"time"
)

// Period 是聚合时使用的命名日期范围谓词。
// 它作为显式参数在调用链中传递，不存在共享的"当前周期"状态。
type Period string

const (
	// PeriodToday 表示日期等于今天
	PeriodToday Period = "today"
	// PeriodCalendarWeek 表示日期不早于本ISO周的周一。
	// 这是管理端排行榜使用的"周"定义。
	PeriodCalendarWeek Period = "week"
	// PeriodMonth 表示日期不早于本月1号
	PeriodMonth Period = "month"
)

// DateLayout 是贯穿全系统的日历日期格式。
// 日期总是以本地时区解释，绝不做UTC归一化，否则排行榜会出现跨时区的差一天错误。
const DateLayout = "2006-01-02"

// FormatDate 将一个时间点格式化为本地日历日期字符串。
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// StartOfCalendarWeek 返回now所在ISO周的周一的日期字符串。
// 周一本身在窗口内，前一天（周日）不在。
func StartOfCalendarWeek(now time.Time) string {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // 周日视为第7天
	}
	monday := now.AddDate(0, 0, -(weekday - 1))
	return FormatDate(monday)
}

// StartOfMonth 返回now所在月份1号的日期字符串。
func StartOfMonth(now time.Time) string {
	return FormatDate(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))
}

// RollingWeekStart 返回now往前7个日历天的日期字符串。
// 这是学生面板"近一周"卡片使用的滚动窗口定义，
// 与排行榜的日历周定义是两个不同的谓词，不可互换。
func RollingWeekStart(now time.Time) string {
	return FormatDate(now.AddDate(0, 0, -7))
}

// WindowStart 返回一个命名周期在now时刻的窗口起点日期。
// PeriodToday的窗口起点就是今天本身。
func WindowStart(period Period, now time.Time) (string, error) {
	switch period {
	case PeriodToday:
		return FormatDate(now), nil
	case PeriodCalendarWeek:
		return StartOfCalendarWeek(now), nil
	case PeriodMonth:
		return StartOfMonth(now), nil
	}
	return "", fmt.Errorf("未知的周期: %q", period)
}

// ISOWeekKey 返回now所在ISO周的键，例如 "2024-W23"。用于Redis排行榜键名。
func ISOWeekKey(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthKey 返回now所在月份的键，例如 "2024-06"。用于Redis排行榜键名。
func MonthKey(now time.Time) string {
	return now.Format("2006-01")
}

// ParseDate 解析一个本地日历日期字符串。
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}
