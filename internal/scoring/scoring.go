package scoring

import (
	"math"

	"github.com/SlpAus/study-tracker-backend/internal/platform/config"
	"github.com/SlpAus/study-tracker-backend/internal/subject"
)

// Counts 是一次录入中各科目的数值，键为科目键名。
// 缺失的科目视为0。
type Counts map[string]int

// Normalize 返回一份净化后的副本：
// 负数一律钳制为0（绝不参与减法），布尔科目钳制为0/1，未知科目被丢弃。
func Normalize(counts Counts) Counts {
	out := make(Counts, len(subject.Definitions))
	for _, def := range subject.Definitions {
		v := counts[def.Key]
		if v < 0 {
			v = 0
		}
		if def.Boolean && v > 1 {
			v = 1
		}
		out[def.Key] = v
	}
	return out
}

// IsAllZero 判断一次提交是否没有任何有效数值。
// 全零提交属于校验失败，应在持久化之前被拦截。
func IsAllZero(counts Counts) bool {
	for _, def := range subject.Definitions {
		if counts[def.Key] > 0 {
			return false
		}
	}
	return true
}

// ComputeDailyTotal 根据计分策略计算单日总分。
// flat策略：各科目计数直接求和（布尔科目贡献0或1）；
// weighted策略：按权重表加权求和，结果四舍五入为整数。
// 输入在计算前总是先经过Normalize，因此对科目顺序不敏感。
func ComputeDailyTotal(counts Counts, policy config.ScoringPolicy, weights map[string]float64) int {
	normalized := Normalize(counts)

	if policy == config.PolicyWeighted {
		var sum float64
		for _, def := range subject.Definitions {
			w, ok := weights[def.Key]
			if !ok {
				w = 1.0
			}
			sum += float64(normalized[def.Key]) * w
		}
		return int(math.Round(sum))
	}

	var sum int
	for _, def := range subject.Definitions {
		sum += normalized[def.Key]
	}
	return sum
}

// EntryTotal 是聚合计算所需的最小视图：日期加当日总分。
type EntryTotal struct {
	Date  string
	Total int
}

// AggregateSince 对日期大于等于from的所有记录求总分之和。
// 不满足谓词的记录贡献0；重复调用结果相同。
// 日期使用 YYYY-MM-DD 格式，该格式下字符串比较与日期比较等价。
func AggregateSince(entries []EntryTotal, from string) int {
	var sum int
	for _, e := range entries {
		if e.Date >= from {
			sum += e.Total
		}
	}
	return sum
}

// AggregateOn 对日期恰好等于date的记录求总分之和。
func AggregateOn(entries []EntryTotal, date string) int {
	var sum int
	for _, e := range entries {
		if e.Date == date {
			sum += e.Total
		}
	}
	return sum
}
