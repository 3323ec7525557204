package stats

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"betting_assistant/models"

	"github.com/shopspring/decimal"
)

// 统计结果中的哨兵值
const (
	WinRateNotAvailable = "N/A"
	ZeroReturn          = "0%"
)

// 排序字段
const (
	SortByDate       = "date"
	SortByConfidence = "confidence"
)

// DefaultRecentLimit 首页展示的最近分析条数
const DefaultRecentLimit = 4

// roiPattern 只接受普通十进制数，拒绝科学计数法
var roiPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// Summary 历史记录汇总
type Summary struct {
	Total         int    `json:"total"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	Pending       int    `json:"pending"`
	Pushes        int    `json:"pushes"`
	WinRate       string `json:"winRate"`
	AverageReturn string `json:"averageReturn"`
}

// StatItem 首页统计卡片
type StatItem struct {
	Name string `json:"name"`
	Stat string `json:"stat"`
}

// Summarize 对全部记录做一次完整统计。
// 已结算 = win/loss/push，push 计入胜率分母；未知状态只计入 total。
func Summarize(records []models.AnalysisRecord) Summary {
	summary := Summary{Total: len(records)}

	completed := 0
	roiSum := decimal.Zero
	roiCount := 0

	for i := range records {
		record := &records[i]
		switch record.Outcome {
		case models.OutcomeWin:
			summary.Wins++
		case models.OutcomeLoss:
			summary.Losses++
		case models.OutcomePush:
			summary.Pushes++
		case models.OutcomePending:
			summary.Pending++
		}

		if !record.Outcome.Completed() {
			continue
		}
		completed++

		if value, ok := ParseROI(string(record.ROI)); ok {
			roiSum = roiSum.Add(value)
			roiCount++
		}
	}

	summary.WinRate = WinRateNotAvailable
	if completed > 0 {
		rate := decimal.NewFromInt(int64(summary.Wins) * 100).Div(decimal.NewFromInt(int64(completed)))
		summary.WinRate = formatPercent(rate)
	}

	summary.AverageReturn = ZeroReturn
	if roiCount > 0 {
		summary.AverageReturn = formatPercent(roiSum.Div(decimal.NewFromInt(int64(roiCount))))
	}

	return summary
}

// ParseROI 去掉 % 和开头的 + 后严格解析为有符号小数，无法解析（如 "Even"）返回 false
func ParseROI(raw string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, "%", ""))
	if !roiPattern.MatchString(cleaned) {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(strings.TrimPrefix(cleaned, "+"))
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

func formatPercent(value decimal.Decimal) string {
	return value.Round(1).StringFixed(1) + "%"
}

// FilterByOutcome 按结算状态过滤，"all" 或空值返回全部
func FilterByOutcome(records []models.AnalysisRecord, filter string) []models.AnalysisRecord {
	result := make([]models.AnalysisRecord, 0, len(records))
	if filter == "" || filter == models.OutcomeFilterAll {
		return append(result, records...)
	}

	for i := range records {
		if string(records[i].Outcome) == filter {
			result = append(result, records[i])
		}
	}
	return result
}

// SortByDateDescending 按日期倒序的稳定排序，返回副本
func SortByDateDescending(records []models.AnalysisRecord) []models.AnalysisRecord {
	sorted := append([]models.AnalysisRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})
	return sorted
}

// SortByConfidenceDescending 按置信度倒序的稳定排序，返回副本
func SortByConfidenceDescending(records []models.AnalysisRecord) []models.AnalysisRecord {
	sorted := append([]models.AnalysisRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	return sorted
}

// Arrange 先过滤再排序，未知排序字段按日期处理
func Arrange(records []models.AnalysisRecord, filter, sortBy string) []models.AnalysisRecord {
	filtered := FilterByOutcome(records, filter)
	if sortBy == SortByConfidence {
		return SortByConfidenceDescending(filtered)
	}
	return SortByDateDescending(filtered)
}

// Recent 最近的 n 条记录
func Recent(records []models.AnalysisRecord, n int) []models.AnalysisRecord {
	if n <= 0 {
		n = DefaultRecentLimit
	}
	sorted := SortByDateDescending(records)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Dashboard 首页统计卡片
func Dashboard(summary Summary) []StatItem {
	return []StatItem{
		{Name: "Total Analyses", Stat: strconv.Itoa(summary.Total)},
		{Name: "Success Rate", Stat: summary.WinRate},
		{Name: "Average ROI", Stat: summary.AverageReturn},
		{Name: "Pending Decisions", Stat: strconv.Itoa(summary.Pending)},
	}
}
