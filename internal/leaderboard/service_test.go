package leaderboard

import (
	"errors"
	"testing"
	"time"

	"github.com/SlpAus/study-tracker-backend/internal/entry"
	"github.com/SlpAus/study-tracker-backend/internal/platform/config"
	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/internal/profile"
	"github.com/SlpAus/study-tracker-backend/internal/scoring"
	"github.com/SlpAus/study-tracker-backend/internal/subject"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 准备一个内存数据库，并把Redis标记为不可用，
// 强制排行榜走SQL降级路径。
func setupTestDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("无法打开内存数据库: %v", err)
	}
	database.DB = db
	database.UpdateStatus(false, "")

	if err := db.AutoMigrate(&profile.Profile{}, &entry.DailyEntry{}, &entry.EntryEvent{}); err != nil {
		t.Fatalf("无法迁移测试表: %v", err)
	}
}

func createTestUser(t *testing.T, username string) *profile.Profile {
	t.Helper()
	p, err := profile.CreateAccount(username, "secret1", username+" 同学")
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return p
}

func addPoints(t *testing.T, userID, date string, points int) {
	t.Helper()
	err := database.DB.Create(&entry.DailyEntry{
		UserID: userID, Date: date, TotalPoints: points,
	}).Error
	if err != nil {
		t.Fatalf("写入日记录失败: %v", err)
	}
}

func TestGetBoardOrdering(t *testing.T) {
	setupTestDB(t)

	a := createTestUser(t, "aylin")
	b := createTestUser(t, "baran")
	c := createTestUser(t, "ceren")
	d := createTestUser(t, "deniz")
	e := createTestUser(t, "emre")

	addPoints(t, a.ID, "2026-08-01", 10)
	addPoints(t, b.ID, "2026-08-01", 30)
	addPoints(t, c.ID, "2026-08-02", 30)
	addPoints(t, d.ID, "2026-08-03", 5)
	// e 没有任何记录

	board, err := GetBoard(PeriodTotal, time.Date(2026, 9, 15, 12, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}

	if board.Source != "database" {
		t.Errorf("source = %s, 期望 database", board.Source)
	}
	if len(board.Rows) != 5 {
		t.Fatalf("榜单行数 = %d, 期望 5", len(board.Rows))
	}

	t.Run("按积分降序且同分保持注册顺序", func(t *testing.T) {
		wantOrder := []string{b.ID, c.ID, a.ID, d.ID, e.ID}
		for i, want := range wantOrder {
			if board.Rows[i].UserID != want {
				t.Errorf("第%d名 = %s, 期望 %s", i+1, board.Rows[i].UserID, want)
			}
			if board.Rows[i].Rank != i+1 {
				t.Errorf("rank = %d, 期望 %d", board.Rows[i].Rank, i+1)
			}
		}
	})

	t.Run("前三名获得奖牌", func(t *testing.T) {
		wantMedals := []string{MedalGold, MedalSilver, MedalBronze, "", ""}
		for i, want := range wantMedals {
			if board.Rows[i].Medal != want {
				t.Errorf("第%d名奖牌 = %q, 期望 %q", i+1, board.Rows[i].Medal, want)
			}
		}
	})

	t.Run("统计只计入有积分的用户", func(t *testing.T) {
		if board.Participants != 4 {
			t.Errorf("participants = %d, 期望 4", board.Participants)
		}
		if got := board.Rows[0].TotalPoints + board.Rows[1].TotalPoints +
			board.Rows[2].TotalPoints + board.Rows[3].TotalPoints; got != 75 {
			t.Errorf("积分合计 = %d, 期望 75", got)
		}
	})
}

func TestGetBoardPeriodWindows(t *testing.T) {
	setupTestDB(t)

	// 2026-09-01是周二，所在周从周一2026-08-31开始，所在月从2026-09-01开始
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local)
	today := "2026-09-01"
	weekMonday := "2026-08-31"
	longAgo := "2000-01-01"

	u := createTestUser(t, "mert")
	v := createTestUser(t, "selin")

	addPoints(t, u.ID, today, 8)
	addPoints(t, u.ID, weekMonday, 4)
	addPoints(t, u.ID, longAgo, 100)
	addPoints(t, v.ID, weekMonday, 6)

	t.Run("每一行带齐四个窗口的积分", func(t *testing.T) {
		board, err := GetBoard("today", now)
		if err != nil {
			t.Fatalf("GetBoard: %v", err)
		}
		row := board.Rows[0]
		if row.UserID != u.ID {
			t.Fatalf("榜首 = %s, 期望 %s", row.UserID, u.ID)
		}
		if row.TodayPoints != 8 || row.WeekPoints != 12 || row.MonthPoints != 8 || row.TotalPoints != 112 {
			t.Errorf("窗口积分 = %d/%d/%d/%d, 期望 8/12/8/112",
				row.TodayPoints, row.WeekPoints, row.MonthPoints, row.TotalPoints)
		}
		if board.WindowStart != today {
			t.Errorf("window_start = %s, 期望 %s", board.WindowStart, today)
		}
	})

	t.Run("汇总卡按全体学生求和", func(t *testing.T) {
		board, err := GetBoard("today", now)
		if err != nil {
			t.Fatalf("GetBoard: %v", err)
		}
		want := Summary{TodayTotal: 8, WeekTotal: 18, MonthTotal: 8}
		if board.Summary != want {
			t.Errorf("summary = %+v, 期望 %+v", board.Summary, want)
		}
	})

	t.Run("名次按请求周期对应的列排序", func(t *testing.T) {
		board, err := GetBoard("week", now)
		if err != nil {
			t.Fatalf("GetBoard: %v", err)
		}
		if board.WindowStart != weekMonday {
			t.Errorf("window_start = %s, 期望 %s", board.WindowStart, weekMonday)
		}
		if board.Rows[0].UserID != u.ID || board.Rows[1].UserID != v.ID {
			t.Errorf("周榜顺序 = %s, %s, 期望 %s, %s",
				board.Rows[0].UserID, board.Rows[1].UserID, u.ID, v.ID)
		}
		if board.Rows[0].WeekPoints != 12 || board.Rows[1].WeekPoints != 6 {
			t.Errorf("周积分 = %d, %d, 期望 12, 6",
				board.Rows[0].WeekPoints, board.Rows[1].WeekPoints)
		}
	})

	t.Run("total窗口包含全部历史", func(t *testing.T) {
		board, err := GetBoard("total", now)
		if err != nil {
			t.Fatalf("GetBoard: %v", err)
		}
		if board.Rows[0].TotalPoints != 112 {
			t.Errorf("total_points = %d, 期望 112", board.Rows[0].TotalPoints)
		}
	})

	t.Run("period缺省等价于today", func(t *testing.T) {
		board, err := GetBoard("", now)
		if err != nil {
			t.Fatalf("GetBoard: %v", err)
		}
		if board.Period != "today" {
			t.Errorf("period = %s, 期望 today", board.Period)
		}
	})

	t.Run("未知周期返回错误", func(t *testing.T) {
		_, err := GetBoard("decade", now)
		if !errors.Is(err, ErrUnknownPeriod) {
			t.Errorf("期望 ErrUnknownPeriod, 得到 %v", err)
		}
	})
}

// 端到端：一次保存产生的总分要原样出现在当天的排行榜上
func TestSaveFlowsIntoTodayBoard(t *testing.T) {
	setupTestDB(t)
	if err := subject.PrimeCachedDB(); err != nil {
		t.Fatalf("无法初始化subject模块: %v", err)
	}

	u := createTestUser(t, "okan")
	now := time.Now()
	today := now.Format("2006-01-02")

	_, event, err := entry.SaveEntry(u.ID, today, scoring.Counts{"kk": 3, "rsl": 2}, "",
		config.SaveModeAdditive, config.PolicyFlat)
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if event.NewTotal != 5 {
		t.Fatalf("new_total = %d, 期望 5", event.NewTotal)
	}

	board, err := GetBoard("today", now)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if board.Rows[0].UserID != u.ID || board.Rows[0].TodayPoints != 5 {
		t.Errorf("榜首 = %s/%d, 期望 %s/5", board.Rows[0].UserID, board.Rows[0].TodayPoints, u.ID)
	}
}

func TestGetActivity(t *testing.T) {
	setupTestDB(t)

	u := createTestUser(t, "zeynep")
	for i := 1; i <= 3; i++ {
		err := database.DB.Create(&entry.EntryEvent{
			UserID: u.ID, Date: "2026-09-01", KK: i, TotalDelta: i, NewTotal: i,
		}).Error
		if err != nil {
			t.Fatalf("写入事件失败: %v", err)
		}
	}

	items, err := GetActivity(2)
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("条数 = %d, 期望 2", len(items))
	}
	// 按时间倒序，最新的在前
	if items[0].EventID <= items[1].EventID {
		t.Errorf("排序错误: %d, %d", items[0].EventID, items[1].EventID)
	}
	if items[0].Username != "zeynep" {
		t.Errorf("username = %s, 期望 zeynep", items[0].Username)
	}
	if items[0].Subjects["kk"] != 3 {
		t.Errorf("kk = %d, 期望 3", items[0].Subjects["kk"])
	}
}
