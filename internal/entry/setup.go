package entry

import (
	"fmt"

	"github.com/SlpAus/study-tracker-backend/internal/platform/database"
	"github.com/SlpAus/study-tracker-backend/internal/platform/metadata"
	"github.com/SlpAus/study-tracker-backend/pkg/lifecycle"
)

// PrimeDB 负责初始化entry模块的数据库部分
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&DailyEntry{}, &EntryEvent{}); err != nil {
		return fmt.Errorf("无法迁移entry表: %w", err)
	}
	fmt.Println("Entry数据库表迁移成功。")
	return nil
}

// StartEntryProcessor 初始化并启动全局的EntryProcessor
// 接收两个handle来管理两阶段关闭逻辑
func StartEntryProcessor(gracefulHandle, forcefulHandle *lifecycle.Handle) error {
	startID, err := metadata.GetLastProcessedEventID()
	if err != nil {
		// Redis检查点不可用时退回SQL中记录的重建水位
		startID, err = metadata.GetLastRebuildEventID(database.DB)
		if err != nil {
			return fmt.Errorf("无法获取启动Entry Processor所需的检查点: %w", err)
		}
	}

	initializeProcessor(startID)
	go startProcessor(gracefulHandle, forcefulHandle)

	return nil
}
