package scoring

import (
	"testing"

	"github.com/SlpAus/study-tracker-backend/internal/platform/config"
)

func TestNormalize(t *testing.T) {
	t.Run("负数钳制为0", func(t *testing.T) {
		out := Normalize(Counts{"kk": -5, "rsl": 3})
		if out["kk"] != 0 {
			t.Errorf("kk = %d, 期望 0", out["kk"])
		}
		if out["rsl"] != 3 {
			t.Errorf("rsl = %d, 期望 3", out["rsl"])
		}
	})

	t.Run("布尔科目钳制为1", func(t *testing.T) {
		out := Normalize(Counts{"orc": 7, "thc": 1})
		if out["orc"] != 1 {
			t.Errorf("orc = %d, 期望 1", out["orc"])
		}
		if out["thc"] != 1 {
			t.Errorf("thc = %d, 期望 1", out["thc"])
		}
	})

	t.Run("未知科目被丢弃", func(t *testing.T) {
		out := Normalize(Counts{"bogus": 10, "kk": 1})
		if _, ok := out["bogus"]; ok {
			t.Error("未知科目不应出现在结果中")
		}
	})

	t.Run("缺失科目视为0", func(t *testing.T) {
		out := Normalize(Counts{})
		if out["alm"] != 0 {
			t.Errorf("alm = %d, 期望 0", out["alm"])
		}
	})
}

func TestIsAllZero(t *testing.T) {
	if !IsAllZero(Counts{}) {
		t.Error("空提交应判定为全零")
	}
	if !IsAllZero(Counts{"kk": 0, "orc": 0}) {
		t.Error("显式全零提交应判定为全零")
	}
	if IsAllZero(Counts{"trk": 1}) {
		t.Error("有数值的提交不应判定为全零")
	}
}

func TestComputeDailyTotal(t *testing.T) {
	t.Run("flat策略为闭式求和", func(t *testing.T) {
		counts := Counts{"kk": 3, "rsl": 2, "orc": 1, "thc": 1}
		got := ComputeDailyTotal(counts, config.PolicyFlat, nil)
		if got != 7 {
			t.Errorf("total = %d, 期望 7", got)
		}
	})

	t.Run("flat策略与科目顺序无关", func(t *testing.T) {
		a := ComputeDailyTotal(Counts{"kk": 1, "trk": 4}, config.PolicyFlat, nil)
		b := ComputeDailyTotal(Counts{"trk": 4, "kk": 1}, config.PolicyFlat, nil)
		if a != b {
			t.Errorf("同样的提交得到了不同总分: %d vs %d", a, b)
		}
	})

	t.Run("负数和超限布尔不计入总分", func(t *testing.T) {
		got := ComputeDailyTotal(Counts{"kk": -10, "orc": 5}, config.PolicyFlat, nil)
		if got != 1 {
			t.Errorf("total = %d, 期望 1", got)
		}
	})

	t.Run("weighted策略按权重加权并四舍五入", func(t *testing.T) {
		weights := map[string]float64{"kk": 1.5, "rsl": 2.0}
		got := ComputeDailyTotal(Counts{"kk": 3, "rsl": 1}, config.PolicyWeighted, weights)
		// 3*1.5 + 1*2.0 = 6.5 -> 7
		if got != 7 {
			t.Errorf("total = %d, 期望 7", got)
		}
	})

	t.Run("weighted策略缺失权重按1计", func(t *testing.T) {
		got := ComputeDailyTotal(Counts{"alm": 4}, config.PolicyWeighted, map[string]float64{})
		if got != 4 {
			t.Errorf("total = %d, 期望 4", got)
		}
	})
}

func TestAggregate(t *testing.T) {
	entries := []EntryTotal{
		{Date: "2026-08-25", Total: 10},
		{Date: "2026-08-31", Total: 7},
		{Date: "2026-09-01", Total: 5},
	}

	t.Run("AggregateOn只统计当天", func(t *testing.T) {
		if got := AggregateOn(entries, "2026-09-01"); got != 5 {
			t.Errorf("today = %d, 期望 5", got)
		}
		if got := AggregateOn(entries, "2026-09-02"); got != 0 {
			t.Errorf("没有记录的日期 = %d, 期望 0", got)
		}
	})

	t.Run("AggregateSince包含边界日期", func(t *testing.T) {
		if got := AggregateSince(entries, "2026-08-31"); got != 12 {
			t.Errorf("sum = %d, 期望 12", got)
		}
	})

	t.Run("AggregateSince重复调用结果相同", func(t *testing.T) {
		a := AggregateSince(entries, "2026-08-01")
		b := AggregateSince(entries, "2026-08-01")
		if a != b || a != 22 {
			t.Errorf("sum = %d/%d, 期望 22", a, b)
		}
	})
}
