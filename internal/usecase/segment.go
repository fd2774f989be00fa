package usecase

import "leadform-telegram-bot/internal/domain"

// sentinel для неизвестного срока: заведомо дальше любого порога
const unknownMaxDays = 999999

// Segmenter относит заявку к hot/warm/cold по нижней границе бюджета
// и максимальному сроку. Чистая функция: без побочных эффектов,
// неизвестные ключи не являются ошибкой.
type Segmenter struct {
	budgets    []domain.BudgetOption
	timeframes []domain.TimeframeOption

	hotBudgetMin  int
	hotMaxDays    int
	warmBudgetMin int
	warmMaxDays   int
}

func NewSegmenter(budgets []domain.BudgetOption, timeframes []domain.TimeframeOption, hotBudgetMin, hotMaxDays, warmBudgetMin, warmMaxDays int) *Segmenter {
	return &Segmenter{
		budgets:       budgets,
		timeframes:    timeframes,
		hotBudgetMin:  hotBudgetMin,
		hotMaxDays:    hotMaxDays,
		warmBudgetMin: warmBudgetMin,
		warmMaxDays:   warmMaxDays,
	}
}

func (s *Segmenter) BudgetOption(key string) (domain.BudgetOption, bool) {
	for _, o := range s.budgets {
		if o.Key == key {
			return o, true
		}
	}
	return domain.BudgetOption{}, false
}

func (s *Segmenter) TimeframeOption(key string) (domain.TimeframeOption, bool) {
	for _, o := range s.timeframes {
		if o.Key == key {
			return o, true
		}
	}
	return domain.TimeframeOption{}, false
}

func (s *Segmenter) Classify(budgetKey, timeframeKey string) domain.Status {
	budgetMin := 0
	if o, ok := s.BudgetOption(budgetKey); ok {
		budgetMin = o.Min
	}
	maxDays := unknownMaxDays
	if o, ok := s.TimeframeOption(timeframeKey); ok {
		maxDays = o.MaxDays
	}

	if budgetMin >= s.hotBudgetMin && maxDays <= s.hotMaxDays {
		return domain.StatusHot
	}
	if budgetMin >= s.warmBudgetMin && maxDays <= s.warmMaxDays {
		return domain.StatusWarm
	}
	return domain.StatusCold
}
