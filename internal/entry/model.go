package entry

import (
	"time"

	"github.com/SlpAus/study-tracker-backend/internal/scoring"
)

// DailyEntry 定义了"一人一天一行"的答题记录。
// (UserID, Date) 上的唯一索引就是upsert的冲突键，这是本表的核心不变量。
type DailyEntry struct {
	ID uint `gorm:"primarykey" json:"id"`

	// UserID 是档案ID，作为不透明字符串存储
	UserID string `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:idx_user_date" json:"user_id"`

	// Date 是本地日历日期字符串 YYYY-MM-DD，绝不做UTC归一化
	Date string `gorm:"column:date;type:varchar(10);not null;uniqueIndex:idx_user_date" json:"date"`

	// --- 各科目的当日数值 ---
	// orc/thc 是0/1标记，其余是题目计数
	KK  int `gorm:"column:kk" json:"kk"`
	RSL int `gorm:"column:rsl" json:"rsl"`
	PRT int `gorm:"column:prt" json:"prt"`
	CVS int `gorm:"column:cvs" json:"cvs"`
	ORC int `gorm:"column:orc" json:"orc"`
	THC int `gorm:"column:thc" json:"thc"`
	ALM int `gorm:"column:alm" json:"alm"`
	TRK int `gorm:"column:trk" json:"trk"`

	// Note 是当日的自由文本备注
	Note string `gorm:"column:note" json:"note"`

	// TotalPoints 是派生的当日总分，只由计分引擎写入，用户不可直接编辑
	TotalPoints int `gorm:"column:total_points" json:"total_points"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// Counts 把行中的科目列转换为计分引擎使用的映射。
func (e *DailyEntry) Counts() scoring.Counts {
	return scoring.Counts{
		"kk": e.KK, "rsl": e.RSL, "prt": e.PRT, "cvs": e.CVS,
		"orc": e.ORC, "thc": e.THC, "alm": e.ALM, "trk": e.TRK,
	}
}

// applyCounts 把净化后的数值写回科目列。
func (e *DailyEntry) applyCounts(counts scoring.Counts) {
	e.KK = counts["kk"]
	e.RSL = counts["rsl"]
	e.PRT = counts["prt"]
	e.CVS = counts["cvs"]
	e.ORC = counts["orc"]
	e.THC = counts["thc"]
	e.ALM = counts["alm"]
	e.TRK = counts["trk"]
}

// EntryEvent 是只追加的保存事件账本。
// 每次成功的保存操作产生一条事件；ID严格递增，
// 排行榜处理器按ID顺序消费事件并把TotalDelta应用到Redis。
// 它同时是管理面板"最近动态"的数据来源。
type EntryEvent struct {
	ID uint `gorm:"primarykey" json:"id"`

	UserID string `gorm:"column:user_id;type:varchar(36);not null;index" json:"user_id"`
	Date   string `gorm:"column:date;type:varchar(10);not null" json:"date"`

	// --- 本次提交的（净化后的）数值 ---
	KK  int `gorm:"column:kk" json:"kk"`
	RSL int `gorm:"column:rsl" json:"rsl"`
	PRT int `gorm:"column:prt" json:"prt"`
	CVS int `gorm:"column:cvs" json:"cvs"`
	ORC int `gorm:"column:orc" json:"orc"`
	THC int `gorm:"column:thc" json:"thc"`
	ALM int `gorm:"column:alm" json:"alm"`
	TRK int `gorm:"column:trk" json:"trk"`

	// NewTotal 是本次保存后当天的总分
	NewTotal int `gorm:"column:new_total" json:"new_total"`

	// TotalDelta 是本次保存引起的总分变化量，可能为负（replace模式）
	TotalDelta int `gorm:"column:total_delta" json:"total_delta"`

	CreatedAt time.Time `json:"created_at"`
}
