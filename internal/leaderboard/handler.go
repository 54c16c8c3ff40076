package leaderboard

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

// GetLeaderboardHandler 处理 GET /api/leaderboard?period=
// period 可以是 today、week、month、total，缺省为 today。
func GetLeaderboardHandler(c *gin.Context) {
	period := c.DefaultQuery("period", "today")

	board, err := GetBoard(period, time.Now())
	if err != nil {
		if errors.Is(err, ErrUnknownPeriod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法生成排行榜: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, board)
}

// GetActivityHandler 处理 GET /api/activity?limit=
func GetActivityHandler(c *gin.Context) {
	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit 必须是正整数"})
			return
		}
		limit = parsed
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	items, err := GetActivity(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取最近动态: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": items})
}
