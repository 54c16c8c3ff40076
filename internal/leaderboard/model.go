package leaderboard

import "time"

// 奖牌标记，只发给积分大于零的前三名
const (
	MedalGold   = "gold"
	MedalSilver = "silver"
	MedalBronze = "bronze"
)

// Row 是排行榜中的一行，带齐四个窗口的积分，排序键由请求的周期决定。
// 积分为零的用户也会出现在榜上，名次按注册顺序稳定排列。
type Row struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	TodayPoints int    `json:"today_points"`
	WeekPoints  int    `json:"week_points"`
	MonthPoints int    `json:"month_points"`
	TotalPoints int    `json:"total_points"`
	Medal       string `json:"medal,omitempty"`
}

// Summary 是管理面板顶部三张统计卡的数据，对所有学生求和
type Summary struct {
	TodayTotal int `json:"today_total"`
	WeekTotal  int `json:"week_total"`
	MonthTotal int `json:"month_total"`
}

// Board 是排行榜接口的完整响应
type Board struct {
	Period      string `json:"period"`
	WindowStart string `json:"window_start,omitempty"`

	// Source 标明本次数据来自Redis缓存还是SQL降级路径
	Source       string  `json:"source"`
	Rows         []Row   `json:"rows"`
	Participants int     `json:"participants"`
	Summary      Summary `json:"summary"`
}

// ActivityItem 是管理面板"最近动态"流中的一条保存事件
type ActivityItem struct {
	EventID    uint           `json:"event_id"`
	UserID     string         `json:"user_id"`
	Username   string         `json:"username"`
	FullName   string         `json:"full_name"`
	Date       string         `json:"date"`
	Subjects   map[string]int `json:"subjects"`
	TotalDelta int            `json:"total_delta"`
	NewTotal   int            `json:"new_total"`
	CreatedAt  time.Time      `json:"created_at"`
}
