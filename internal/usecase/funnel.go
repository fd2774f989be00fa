package usecase

import (
	"fmt"
	"strings"
)

type FunnelRepository interface {
	Hit(stage Stage, chatID int64) error
	Counts() map[Stage]int
}

// FunnelUsecase считает, сколько уникальных пользователей дошло до
// каждого этапа анкеты.
type FunnelUsecase struct {
	repo  FunnelRepository
	order []Stage
}

func NewFunnelUsecase(repo FunnelRepository, askEmail bool) *FunnelUsecase {
	order := []Stage{StageName, StagePhone}
	if askEmail {
		order = append(order, StageEmail)
	}
	order = append(order, StageBudget, StageRegion, StageTimeframe, StageContacted, StageLeadSaved)
	return &FunnelUsecase{repo: repo, order: order}
}

func (u *FunnelUsecase) Reach(chatID int64, stage Stage) {
	if stage == "" || stage == StageIdle {
		return
	}
	_ = u.repo.Hit(stage, chatID)
}

// Chart — текстовое представление воронки (фолбэк, когда PNG не отрисовался).
func (u *FunnelUsecase) Chart() string {
	counts := u.repo.Counts()
	if len(counts) == 0 {
		return "Данных по воронке пока нет"
	}
	base := counts[u.order[0]]
	if base == 0 {
		for _, s := range u.order {
			if counts[s] > base {
				base = counts[s]
			}
		}
	}
	var prev int
	var b strings.Builder
	b.WriteString("Воронка по шагам:\n")
	for i, s := range u.order {
		c := counts[s]
		relPrev := 0
		if i == 0 {
			relPrev = 100
		} else if prev > 0 {
			relPrev = percent(c, prev)
		}
		fmt.Fprintf(&b, "- %s: %d | %3d%% от базового | %3d%% от пред. %s\n", stageLabel(s), c, percent(c, base), relPrev, bar20(c, base))
		prev = c
	}
	return b.String()
}

// GraphData возвращает метки и значения по порядку шагов для построения графика
func (u *FunnelUsecase) GraphData() ([]string, []int) {
	counts := u.repo.Counts()
	labels := make([]string, 0, len(u.order))
	values := make([]int, 0, len(u.order))
	for _, s := range u.order {
		labels = append(labels, stageLabel(s))
		values = append(values, counts[s])
	}
	return labels, values
}

func percent(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (100 * a) / b
}

func bar20(val, max int) string {
	if max <= 0 {
		return ""
	}
	filled := (20 * val) / max
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}

func stageLabel(s Stage) string {
	switch s {
	case StageName:
		return "Имя"
	case StagePhone:
		return "Телефон"
	case StageEmail:
		return "Email"
	case StageBudget:
		return "Бюджет"
	case StageRegion:
		return "Регион"
	case StageTimeframe:
		return "Срок"
	case StageContacted:
		return "Опыт обращений"
	case StageLeadSaved:
		return "Лид"
	default:
		return string(s)
	}
}
