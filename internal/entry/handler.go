package entry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/study-tracker-backend/internal/platform/config"
	"github.com/SlpAus/study-tracker-backend/internal/profile"
	"github.com/SlpAus/study-tracker-backend/internal/scoring"
	"github.com/SlpAus/study-tracker-backend/internal/subject"
	"github.com/gin-gonic/gin"
)

// SaveEntryRequestBody 定义了保存接口的请求体
type SaveEntryRequestBody struct {
	// Date 省略时默认为今天（服务器本地日期）
	Date     string         `json:"date"`
	Subjects map[string]int `json:"subjects" binding:"required"`
	Note     string         `json:"note" binding:"max=500"`
}

// EntrySummary 是学生仪表盘的聚合卡片数据
type EntrySummary struct {
	TodayTotal   int `json:"today_total"`
	WeeklyTotal  int `json:"weekly_total"`
	MonthlyTotal int `json:"monthly_total"`
}

// validateSubjects 逐项校验提交的科目数值。
// 未知科目和负数都是硬错误，而不是静默丢弃，
// 这样客户端的拼写错误不会被默默吞掉。
func validateSubjects(subjects map[string]int) error {
	for key, value := range subjects {
		if !subject.IsValidKey(key) {
			return fmt.Errorf("未知科目: %s", key)
		}
		if value < 0 {
			return fmt.Errorf("科目 %s 的数值不能为负", key)
		}
	}
	return nil
}

// SaveEntryHandler 处理 POST /api/entries
func SaveEntryHandler(c *gin.Context) {
	userID := c.GetString(profile.UserIDKey)

	var body SaveEntryRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	if err := validateSubjects(body.Subjects); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	today := scoring.FormatDate(now)
	date := body.Date
	if date == "" {
		date = today
	} else {
		if _, err := scoring.ParseDate(date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "日期格式错误，应为 YYYY-MM-DD"})
			return
		}
		if date > today {
			c.JSON(http.StatusBadRequest, gin.H{"error": "不能为未来日期保存记录"})
			return
		}
	}

	counts := scoring.Normalize(scoring.Counts(body.Subjects))
	if scoring.IsAllZero(counts) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "没有可保存的数值"})
		return
	}

	saved, event, err := SaveEntry(userID, date, counts, body.Note,
		config.Cfg.Entry.SaveMode, config.Cfg.Scoring.Policy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存失败: " + err.Error()})
		return
	}

	// 排行榜更新是异步的，客户端不等待Redis
	SubmitEvent(*event)

	c.JSON(http.StatusOK, gin.H{
		"message": "保存成功",
		"entry":   saved,
	})
}

// GetEntriesHandler 处理 GET /api/entries
// 返回当前用户的全部日记录和仪表盘聚合：
// 今日总分、近7天滚动总分、本月总分。
func GetEntriesHandler(c *gin.Context) {
	userID := c.GetString(profile.UserIDKey)

	entries, err := ListEntriesForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询记录失败: " + err.Error()})
		return
	}

	now := time.Now()
	totals := EntryTotals(entries)
	summary := EntrySummary{
		TodayTotal:   scoring.AggregateOn(totals, scoring.FormatDate(now)),
		WeeklyTotal:  scoring.AggregateSince(totals, scoring.RollingWeekStart(now)),
		MonthlyTotal: scoring.AggregateSince(totals, scoring.StartOfMonth(now)),
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"summary": summary,
	})
}
