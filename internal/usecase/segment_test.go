package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leadform-telegram-bot/internal/domain"
	"leadform-telegram-bot/internal/usecase"
)

func testSegmenter() *usecase.Segmenter {
	budgets := []domain.BudgetOption{
		{Key: "low", Label: "До 100 000$", Min: 0, Max: 100000},
		{Key: "mid", Label: "100 000–300 000$", Min: 100000, Max: 300000},
		{Key: "high", Label: "Более 300 000$", Min: 300000},
	}
	timeframes := []domain.TimeframeOption{
		{Key: "week", Label: "В течение недели", MaxDays: 7},
		{Key: "month", Label: "В течение месяца", MaxDays: 30},
		{Key: "quarter", Label: "Через 1–3 месяца", MaxDays: 90},
	}
	return usecase.NewSegmenter(budgets, timeframes, 100000, 30, 100000, 90)
}

func TestClassify(t *testing.T) {
	s := testSegmenter()

	tests := []struct {
		name      string
		budget    string
		timeframe string
		want      domain.Status
	}{
		{"high budget, fast", "high", "week", domain.StatusHot},
		{"mid budget at hot boundary", "mid", "month", domain.StatusHot},
		{"mid budget, slow", "mid", "quarter", domain.StatusWarm},
		{"low budget always cold", "low", "week", domain.StatusCold},
		{"unknown budget key", "xxl", "week", domain.StatusCold},
		{"unknown timeframe key", "high", "someday", domain.StatusCold},
		{"both unknown", "", "", domain.StatusCold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Classify(tt.budget, tt.timeframe))
		})
	}
}

func TestClassifyBoundary(t *testing.T) {
	budgets := []domain.BudgetOption{{Key: "b", Min: 100000}}
	timeframes := []domain.TimeframeOption{
		{Key: "exact", MaxDays: 30},
		{Key: "over", MaxDays: 31},
	}
	s := usecase.NewSegmenter(budgets, timeframes, 100000, 30, 100000, 90)

	// нижняя граница бюджета и срок ровно на порогах -> hot
	assert.Equal(t, domain.StatusHot, s.Classify("b", "exact"))
	// на день дольше -> максимум warm
	assert.Equal(t, domain.StatusWarm, s.Classify("b", "over"))
}

func TestClassifyDeterministic(t *testing.T) {
	s := testSegmenter()
	for _, budget := range []string{"low", "mid", "high", "unknown"} {
		for _, timeframe := range []string{"week", "month", "quarter", "unknown"} {
			first := s.Classify(budget, timeframe)
			assert.Equal(t, first, s.Classify(budget, timeframe))
			assert.Contains(t, []domain.Status{domain.StatusHot, domain.StatusWarm, domain.StatusCold}, first)
		}
	}
}
