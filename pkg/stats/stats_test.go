package stats

import (
	"testing"

	"betting_assistant/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, date string, outcome models.Outcome, roi string, confidence float64) models.AnalysisRecord {
	return models.AnalysisRecord{
		ID:         id,
		Date:       date,
		Outcome:    outcome,
		ROI:        models.ROI(roi),
		Confidence: models.Confidence(confidence),
	}
}

// 与前端历史页面的示例数据一致
func sampleHistory() []models.AnalysisRecord {
	return []models.AnalysisRecord{
		record("12345", "2025-05-28", models.OutcomeWin, "+110", 0.84),
		record("12346", "2025-05-26", models.OutcomeLoss, "-110", 0.65),
		record("12347", "2025-05-24", models.OutcomeWin, "-105", 0.78),
		record("12348", "2025-05-22", models.OutcomePending, "+240", 0.52),
		record("12349", "2025-05-20", models.OutcomeWin, "-115", 0.71),
		record("12350", "2025-05-18", models.OutcomePush, "Even", 0.68),
		record("12351", "2025-05-16", models.OutcomeLoss, "-110", 0.75),
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, WinRateNotAvailable, summary.WinRate)
	assert.Equal(t, ZeroReturn, summary.AverageReturn)
}

func TestSummarize_PendingExcludedFromWinRate(t *testing.T) {
	records := []models.AnalysisRecord{
		record("a", "2025-01-01", models.OutcomeWin, "+100", 0),
		record("b", "2025-01-02", models.OutcomeWin, "+100", 0),
		record("c", "2025-01-03", models.OutcomeWin, "+100", 0),
		record("d", "2025-01-04", models.OutcomeLoss, "-100", 0),
		record("e", "2025-01-05", models.OutcomePending, "", 0),
		record("f", "2025-01-06", models.OutcomePending, "", 0),
	}

	summary := Summarize(records)

	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 3, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
	assert.Equal(t, 2, summary.Pending)
	assert.Equal(t, "75.0%", summary.WinRate)
}

func TestSummarize_UnparseableROIExcludedFromMean(t *testing.T) {
	records := []models.AnalysisRecord{
		record("a", "2025-01-01", models.OutcomeWin, "+110", 0),
		record("b", "2025-01-02", models.OutcomeLoss, "-110", 0),
		record("c", "2025-01-03", models.OutcomePush, "Even", 0),
		record("d", "2025-01-04", models.OutcomeWin, "-105", 0),
	}

	summary := Summarize(records)

	// (110 - 110 - 105) / 3，"Even" 不计入分子和分母
	assert.Equal(t, "-35.0%", summary.AverageReturn)
	assert.Equal(t, "50.0%", summary.WinRate)
	assert.Equal(t, 1, summary.Pushes)
}

func TestSummarize_RoundsToOneDecimal(t *testing.T) {
	records := []models.AnalysisRecord{
		record("a", "2025-01-01", models.OutcomeWin, "+10%", 0),
		record("b", "2025-01-02", models.OutcomeLoss, "-45", 0),
		record("c", "2025-01-03", models.OutcomeLoss, "0", 0),
	}

	summary := Summarize(records)

	assert.Equal(t, "-11.7%", summary.AverageReturn)
	assert.Equal(t, "33.3%", summary.WinRate)
}

func TestSummarize_SampleHistory(t *testing.T) {
	summary := Summarize(sampleHistory())

	assert.Equal(t, Summary{
		Total:         7,
		Wins:          3,
		Losses:        2,
		Pending:       1,
		Pushes:        1,
		WinRate:       "50.0%",
		AverageReturn: "-66.0%",
	}, summary)
}

func TestSummarize_OnlyUnparseableROI(t *testing.T) {
	records := []models.AnalysisRecord{
		record("a", "2025-01-01", models.OutcomePush, "Even", 0),
		record("b", "2025-01-02", models.OutcomeWin, "", 0),
	}

	summary := Summarize(records)

	assert.Equal(t, ZeroReturn, summary.AverageReturn)
	assert.Equal(t, "50.0%", summary.WinRate)
}

func TestSummarize_UnknownOutcomeCountsOnlyInTotal(t *testing.T) {
	records := []models.AnalysisRecord{
		record("a", "2025-01-01", models.Outcome("cancelled"), "+500", 0),
		record("b", "2025-01-02", models.Outcome(""), "+500", 0),
		record("c", "2025-01-03", models.OutcomePending, "+500", 0),
	}

	summary := Summarize(records)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Pending)
	assert.Zero(t, summary.Wins+summary.Losses+summary.Pushes)
	assert.Equal(t, WinRateNotAvailable, summary.WinRate)
	assert.Equal(t, ZeroReturn, summary.AverageReturn)
}

func TestSummarize_PendingROIIgnored(t *testing.T) {
	records := []models.AnalysisRecord{
		record("a", "2025-01-01", models.OutcomeWin, "+100", 0),
		record("b", "2025-01-02", models.OutcomePending, "+900", 0),
	}

	assert.Equal(t, "100.0%", Summarize(records).AverageReturn)
}

func TestParseROI(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"+110", "110", true},
		{"-105", "-105", true},
		{"12.5%", "12.5", true},
		{" +7% ", "7", true},
		{"Even", "", false},
		{"", "", false},
		{"110x", "", false},
		{"%", "", false},
		{"1e2000000", "", false},
		{"1E6", "", false},
		{"1+1", "", false},
		{"++5", "", false},
		{"5.", "", false},
		{"-0.5%", "-0.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			value, ok := ParseROI(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, value.String())
			}
		})
	}
}

func TestSummarize_IgnoresScientificROI(t *testing.T) {
	records := []models.AnalysisRecord{
		{ID: "1", Outcome: models.OutcomeWin, ROI: "1e2000000"},
		{ID: "2", Outcome: models.OutcomeLoss, ROI: "-110"},
	}

	summary := Summarize(records)

	assert.Equal(t, "-110.0%", summary.AverageReturn)
}

func TestFilterByOutcome(t *testing.T) {
	history := sampleHistory()

	losses := FilterByOutcome(history, "loss")
	require.Len(t, losses, 2)
	assert.Equal(t, "12346", losses[0].ID)
	assert.Equal(t, "12351", losses[1].ID)

	all := FilterByOutcome(history, models.OutcomeFilterAll)
	assert.Equal(t, history, all)

	assert.Empty(t, FilterByOutcome(history, "cancelled"))
}

func TestFilterByOutcome_DoesNotAlias(t *testing.T) {
	history := sampleHistory()

	all := FilterByOutcome(history, "")
	all[0].Outcome = models.OutcomeLoss

	assert.Equal(t, models.OutcomeWin, history[0].Outcome)
}

func TestSortByDateDescending_Stable(t *testing.T) {
	records := []models.AnalysisRecord{
		record("old", "2025-05-01", models.OutcomeWin, "", 0),
		record("same-1", "2025-05-10", models.OutcomeWin, "", 0),
		record("new", "2025-05-20", models.OutcomeWin, "", 0),
		record("same-2", "2025-05-10", models.OutcomeWin, "", 0),
		record("same-3", "2025-05-10", models.OutcomeWin, "", 0),
	}

	sorted := SortByDateDescending(records)

	ids := make([]string, 0, len(sorted))
	for i := range sorted {
		ids = append(ids, sorted[i].ID)
	}
	assert.Equal(t, []string{"new", "same-1", "same-2", "same-3", "old"}, ids)
	assert.Equal(t, "old", records[0].ID, "输入不应被重排")
}

func TestSortByConfidenceDescending(t *testing.T) {
	sorted := SortByConfidenceDescending(sampleHistory())

	require.Len(t, sorted, 7)
	assert.Equal(t, "12345", sorted[0].ID)
	assert.Equal(t, "12347", sorted[1].ID)
	assert.Equal(t, "12348", sorted[len(sorted)-1].ID)
}

func TestArrange(t *testing.T) {
	history := sampleHistory()

	wins := Arrange(history, "win", SortByConfidence)
	require.Len(t, wins, 3)
	assert.Equal(t, []string{"12345", "12347", "12349"}, []string{wins[0].ID, wins[1].ID, wins[2].ID})

	byDate := Arrange(history, "all", "unknown")
	assert.Equal(t, "12345", byDate[0].ID)
	assert.Equal(t, "12351", byDate[len(byDate)-1].ID)
}

func TestRecent(t *testing.T) {
	history := sampleHistory()
	// 打乱存储顺序，Recent 不依赖插入顺序
	history[0], history[6] = history[6], history[0]

	recent := Recent(history, 0)

	require.Len(t, recent, DefaultRecentLimit)
	assert.Equal(t, "12345", recent[0].ID)
	assert.Equal(t, "12348", recent[3].ID)
	assert.Len(t, Recent(history, 10), 7)
}

func TestDashboard(t *testing.T) {
	items := Dashboard(Summarize(sampleHistory()))

	assert.Equal(t, []StatItem{
		{Name: "Total Analyses", Stat: "7"},
		{Name: "Success Rate", Stat: "50.0%"},
		{Name: "Average ROI", Stat: "-66.0%"},
		{Name: "Pending Decisions", Stat: "1"},
	}, items)
}
