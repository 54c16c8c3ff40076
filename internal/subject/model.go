package subject

import "gorm.io/gorm"

// SubjectWeight 定义了数据库中科目权重的数据结构。
// 只有在加权计分策略下才会参与总分计算，默认策略下仅作为配置数据存在。
type SubjectWeight struct {
	// gorm.Model 包含 ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// Subject 是科目的唯一键名, 例如 "kk"
	Subject string `gorm:"uniqueIndex;not null" json:"subject"`

	// Weight 是该科目每道题对应的分数权重
	Weight float64 `json:"weight"`
}

// Info 持有科目的静态描述，在程序启动时加载到内存中
type Info struct {
	// Key 是科目的唯一键名，与DailyEntry中的列名一致
	Key string `json:"key"`

	// Label 是展示给前端的科目简称
	Label string `json:"label"`

	// Boolean 表示该科目是0/1标记而非题目计数
	Boolean bool `json:"boolean"`
}

// Definitions 是本应用固定的科目集合。
// 顺序即前端表单和历史表格的展示顺序。
var Definitions = []Info{
	{Key: "kk", Label: "KK"},
	{Key: "rsl", Label: "RSL"},
	{Key: "prt", Label: "PRT"},
	{Key: "cvs", Label: "CVS"},
	{Key: "orc", Label: "ORC", Boolean: true},
	{Key: "thc", Label: "THC", Boolean: true},
	{Key: "alm", Label: "ALM"},
	{Key: "trk", Label: "TRK"},
}
