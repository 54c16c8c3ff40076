package subject

import (
	"fmt"

	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"gorm.io/gorm/clause"
)

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&SubjectWeight{}); err != nil {
		return fmt.Errorf("无法迁移subject_weights表: %w", err)
	}
	fmt.Println("SubjectWeight数据库表迁移成功。")
	return nil
}

// seedWeights 为固定科目集合补齐权重记录，已存在的记录保持不变。
// 首次启动时所有科目的权重都是1，与默认的平加计分策略一致。
func seedWeights() error {
	rows := make([]SubjectWeight, 0, len(Definitions))
	for _, def := range Definitions {
		rows = append(rows, SubjectWeight{Subject: def.Key, Weight: 1.0})
	}
	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("无法写入科目权重种子数据: %w", err)
	}
	return nil
}

// PrimeCachedDB 是subject模块的初始化总入口
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := seedWeights(); err != nil {
		return err
	}
	if err := InitializeRepository(); err != nil {
		return err
	}
	return nil
}
