package entry

import (
	"fmt"

	"github.com/SlpAus/study-tracker-backend/internal/platform/config"
	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/internal/scoring"
	"github.com/SlpAus/study-tracker-backend/internal/subject"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// conflictAssignments 根据保存模式构造upsert的冲突赋值。
// additive模式下累加是在数据库端用表达式完成的，
// 两个并发的保存都会落库，不存在读改写造成的更新丢失。
func conflictAssignments(mode config.SaveMode) clause.Set {
	if mode == config.SaveModeReplace {
		cols := make([]string, 0, subject.Count()+1)
		for _, def := range subject.Definitions {
			cols = append(cols, def.Key)
		}
		cols = append(cols, "note")
		return clause.AssignmentColumns(cols)
	}

	// SQLite和Postgres都支持excluded伪表，CASE表达式让0/1标记列在累加时饱和
	assignments := make(map[string]interface{}, subject.Count()+1)
	for _, def := range subject.Definitions {
		if def.Boolean {
			assignments[def.Key] = gorm.Expr(fmt.Sprintf(
				"CASE WHEN daily_entries.%s + excluded.%s > 0 THEN 1 ELSE 0 END", def.Key, def.Key))
		} else {
			assignments[def.Key] = gorm.Expr(fmt.Sprintf("daily_entries.%s + excluded.%s", def.Key, def.Key))
		}
	}
	// 空备注不覆盖已有备注
	assignments["note"] = gorm.Expr("CASE WHEN excluded.note <> '' THEN excluded.note ELSE daily_entries.note END")
	return clause.Assignments(assignments)
}

// SaveEntry 在单个事务中完成一次保存：
// upsert日记录、重算当日总分、追加一条保存事件。
// 返回合并后的日记录和新事件，事件由调用方提交给排行榜处理器。
func SaveEntry(userID, date string, counts scoring.Counts, note string, mode config.SaveMode, policy config.ScoringPolicy) (*DailyEntry, *EntryEvent, error) {
	normalized := scoring.Normalize(counts)
	weights := subject.GetWeights()

	var merged DailyEntry
	var event EntryEvent

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		row := DailyEntry{UserID: userID, Date: date, Note: note}
		row.applyCounts(normalized)

		// upsert在冲突行上持有行锁，直到事务提交，
		// 后续的读回和总分更新因此是串行的
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: conflictAssignments(mode),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("无法upsert日记录: %w", err)
		}

		if err := tx.Where("user_id = ? AND date = ?", userID, date).First(&merged).Error; err != nil {
			return fmt.Errorf("无法读回合并后的日记录: %w", err)
		}

		prevTotal := merged.TotalPoints
		newTotal := scoring.ComputeDailyTotal(merged.Counts(), policy, weights)
		if newTotal != prevTotal {
			if err := tx.Model(&DailyEntry{}).Where("id = ?", merged.ID).Update("total_points", newTotal).Error; err != nil {
				return fmt.Errorf("无法更新当日总分: %w", err)
			}
		}
		merged.TotalPoints = newTotal

		event = EntryEvent{
			UserID:     userID,
			Date:       date,
			KK:         normalized["kk"],
			RSL:        normalized["rsl"],
			PRT:        normalized["prt"],
			CVS:        normalized["cvs"],
			ORC:        normalized["orc"],
			THC:        normalized["thc"],
			ALM:        normalized["alm"],
			TRK:        normalized["trk"],
			NewTotal:   newTotal,
			TotalDelta: newTotal - prevTotal,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("无法写入保存事件: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &merged, &event, nil
}

// ListEntriesForUser 返回某个用户的全部日记录，按日期倒序。
func ListEntriesForUser(userID string) ([]DailyEntry, error) {
	var entries []DailyEntry
	if err := database.DB.Where("user_id = ?", userID).Order("date desc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("无法查询日记录: %w", err)
	}
	return entries, nil
}

// EntryTotals 把日记录列表转换为计分引擎的聚合输入。
func EntryTotals(entries []DailyEntry) []scoring.EntryTotal {
	totals := make([]scoring.EntryTotal, len(entries))
	for i, e := range entries {
		totals[i] = scoring.EntryTotal{Date: e.Date, Total: e.TotalPoints}
	}
	return totals
}

// SubmitEvent 把新产生的保存事件交给排行榜处理器。
// 处理器异步消费，调用方不等待Redis更新完成。
func SubmitEvent(event EntryEvent) {
	submitEventToQueue(event)
}
