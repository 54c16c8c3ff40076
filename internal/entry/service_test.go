package entry

import (
	"testing"

	"github.com/SlpAus/study-tracker-backend/internal/platform/config"
	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/internal/scoring"
	"github.com/SlpAus/study-tracker-backend/internal/subject"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUserID = "0190a8b2-0000-7000-8000-000000000001"

// setupTestDB 把全局数据库句柄切换到一个独立的内存SQLite实例
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

	if err := subject.PrimeCachedDB(); err != nil {
		t.Fatalf("无法初始化subject模块: %v", err)
	}
	if err := PrimeDB(); err != nil {
		t.Fatalf("无法初始化entry模块: %v", err)
	}
}

func TestSaveEntryAdditive(t *testing.T) {
	setupTestDB(t)

	t.Run("同一天重复保存数值累加", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			_, _, err := SaveEntry(testUserID, "2026-09-01", scoring.Counts{"kk": 2}, "",
				config.SaveModeAdditive, config.PolicyFlat)
			if err != nil {
				t.Fatalf("SaveEntry: %v", err)
			}
		}

		var row DailyEntry
		if err := database.DB.Where("user_id = ? AND date = ?", testUserID, "2026-09-01").First(&row).Error; err != nil {
			t.Fatalf("读取日记录失败: %v", err)
		}
		if row.KK != 4 {
			t.Errorf("kk = %d, 期望 4", row.KK)
		}
		if row.TotalPoints != 4 {
			t.Errorf("total_points = %d, 期望 4", row.TotalPoints)
		}
	})

	t.Run("布尔科目累加时饱和到1", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, _, err := SaveEntry(testUserID, "2026-09-02", scoring.Counts{"orc": 1}, "",
				config.SaveModeAdditive, config.PolicyFlat)
			if err != nil {
				t.Fatalf("SaveEntry: %v", err)
			}
		}

		var row DailyEntry
		if err := database.DB.Where("user_id = ? AND date = ?", testUserID, "2026-09-02").First(&row).Error; err != nil {
			t.Fatalf("读取日记录失败: %v", err)
		}
		if row.ORC != 1 {
			t.Errorf("orc = %d, 期望 1", row.ORC)
		}
		if row.TotalPoints != 1 {
			t.Errorf("total_points = %d, 期望 1", row.TotalPoints)
		}
	})

	t.Run("空备注不覆盖已有备注", func(t *testing.T) {
		if _, _, err := SaveEntry(testUserID, "2026-09-03", scoring.Counts{"rsl": 1}, "早自习",
			config.SaveModeAdditive, config.PolicyFlat); err != nil {
			t.Fatalf("SaveEntry: %v", err)
		}
		if _, _, err := SaveEntry(testUserID, "2026-09-03", scoring.Counts{"rsl": 1}, "",
			config.SaveModeAdditive, config.PolicyFlat); err != nil {
			t.Fatalf("SaveEntry: %v", err)
		}

		var row DailyEntry
		if err := database.DB.Where("user_id = ? AND date = ?", testUserID, "2026-09-03").First(&row).Error; err != nil {
			t.Fatalf("读取日记录失败: %v", err)
		}
		if row.Note != "早自习" {
			t.Errorf("note = %q, 期望保留原值", row.Note)
		}
	})
}

func TestSaveEntryReplace(t *testing.T) {
	setupTestDB(t)

	t.Run("重复保存同样的数值是幂等的", func(t *testing.T) {
		counts := scoring.Counts{"kk": 3, "trk": 2}
		var lastDelta int
		for i := 0; i < 2; i++ {
			_, event, err := SaveEntry(testUserID, "2026-09-01", counts, "",
				config.SaveModeReplace, config.PolicyFlat)
			if err != nil {
				t.Fatalf("SaveEntry: %v", err)
			}
			lastDelta = event.TotalDelta
		}

		var row DailyEntry
		if err := database.DB.Where("user_id = ? AND date = ?", testUserID, "2026-09-01").First(&row).Error; err != nil {
			t.Fatalf("读取日记录失败: %v", err)
		}
		if row.KK != 3 || row.TRK != 2 || row.TotalPoints != 5 {
			t.Errorf("row = {kk:%d trk:%d total:%d}, 期望 {3 2 5}", row.KK, row.TRK, row.TotalPoints)
		}
		if lastDelta != 0 {
			t.Errorf("幂等保存的delta = %d, 期望 0", lastDelta)
		}
	})

	t.Run("覆盖保存可以产生负delta", func(t *testing.T) {
		if _, _, err := SaveEntry(testUserID, "2026-09-02", scoring.Counts{"kk": 10}, "",
			config.SaveModeReplace, config.PolicyFlat); err != nil {
			t.Fatalf("SaveEntry: %v", err)
		}
		_, event, err := SaveEntry(testUserID, "2026-09-02", scoring.Counts{"kk": 4}, "",
			config.SaveModeReplace, config.PolicyFlat)
		if err != nil {
			t.Fatalf("SaveEntry: %v", err)
		}
		if event.TotalDelta != -6 {
			t.Errorf("delta = %d, 期望 -6", event.TotalDelta)
		}
		if event.NewTotal != 4 {
			t.Errorf("new_total = %d, 期望 4", event.NewTotal)
		}
	})
}

func TestSaveEntryEvents(t *testing.T) {
	setupTestDB(t)

	// 两次保存产生两条事件，ID递增且delta正确
	_, first, err := SaveEntry(testUserID, "2026-09-01", scoring.Counts{"kk": 3}, "",
		config.SaveModeAdditive, config.PolicyFlat)
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	_, second, err := SaveEntry(testUserID, "2026-09-01", scoring.Counts{"rsl": 2}, "",
		config.SaveModeAdditive, config.PolicyFlat)
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	if second.ID <= first.ID {
		t.Errorf("事件ID应严格递增: %d -> %d", first.ID, second.ID)
	}
	if first.TotalDelta != 3 || second.TotalDelta != 2 {
		t.Errorf("delta = %d/%d, 期望 3/2", first.TotalDelta, second.TotalDelta)
	}
	if second.NewTotal != 5 {
		t.Errorf("new_total = %d, 期望 5", second.NewTotal)
	}

	var count int64
	if err := database.DB.Model(&EntryEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("统计事件失败: %v", err)
	}
	if count != 2 {
		t.Errorf("事件数 = %d, 期望 2", count)
	}
}

func TestSaveEntryIsolation(t *testing.T) {
	setupTestDB(t)

	otherUser := "0190a8b2-0000-7000-8000-000000000002"
	if _, _, err := SaveEntry(testUserID, "2026-09-01", scoring.Counts{"kk": 1}, "",
		config.SaveModeAdditive, config.PolicyFlat); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if _, _, err := SaveEntry(otherUser, "2026-09-01", scoring.Counts{"kk": 5}, "",
		config.SaveModeAdditive, config.PolicyFlat); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if _, _, err := SaveEntry(testUserID, "2026-09-02", scoring.Counts{"kk": 2}, "",
		config.SaveModeAdditive, config.PolicyFlat); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	entries, err := ListEntriesForUser(testUserID)
	if err != nil {
		t.Fatalf("ListEntriesForUser: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("记录数 = %d, 期望 2", len(entries))
	}
	// 按日期倒序
	if entries[0].Date != "2026-09-02" || entries[1].Date != "2026-09-01" {
		t.Errorf("排序错误: %s, %s", entries[0].Date, entries[1].Date)
	}
	if entries[1].KK != 1 {
		t.Errorf("不同用户的记录发生了串扰: kk = %d", entries[1].KK)
	}
}

func TestSaveEntryWeightedPolicy(t *testing.T) {
	setupTestDB(t)

	// 权重表默认全为1.0，先改掉一个再重新加载内存仓库
	if err := database.DB.Model(&subject.SubjectWeight{}).
		Where("subject = ?", "kk").Update("weight", 2.5).Error; err != nil {
		t.Fatalf("更新权重失败: %v", err)
	}
	if err := subject.InitializeRepository(); err != nil {
		t.Fatalf("重新加载权重失败: %v", err)
	}

	_, event, err := SaveEntry(testUserID, "2026-09-01", scoring.Counts{"kk": 2}, "",
		config.SaveModeAdditive, config.PolicyWeighted)
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	// 2 * 2.5 = 5
	if event.NewTotal != 5 {
		t.Errorf("new_total = %d, 期望 5", event.NewTotal)
	}
}
