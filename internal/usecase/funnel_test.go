package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leadform-telegram-bot/internal/infra/memory"
	"leadform-telegram-bot/internal/usecase"
)

func TestFunnelCountsDistinctUsers(t *testing.T) {
	repo := memory.NewFunnelRepo()
	u := usecase.NewFunnelUsecase(repo, true)

	u.Reach(1, usecase.StageName)
	u.Reach(1, usecase.StageName) // повтор того же пользователя не считается
	u.Reach(2, usecase.StageName)
	u.Reach(1, usecase.StagePhone)
	u.Reach(1, usecase.StageLeadSaved)
	u.Reach(1, usecase.StageIdle) // idle не попадает в воронку

	counts := repo.Counts()
	assert.Equal(t, 2, counts[usecase.StageName])
	assert.Equal(t, 1, counts[usecase.StagePhone])
	assert.Equal(t, 1, counts[usecase.StageLeadSaved])
	assert.NotContains(t, counts, usecase.StageIdle)
}

func TestFunnelGraphDataRespectsEmailToggle(t *testing.T) {
	withEmail := usecase.NewFunnelUsecase(memory.NewFunnelRepo(), true)
	labels, _ := withEmail.GraphData()
	assert.Contains(t, labels, "Email")
	assert.Len(t, labels, 8)

	withoutEmail := usecase.NewFunnelUsecase(memory.NewFunnelRepo(), false)
	labels, values := withoutEmail.GraphData()
	assert.NotContains(t, labels, "Email")
	assert.Len(t, labels, 7)
	assert.Len(t, values, 7)
}

func TestFunnelChartText(t *testing.T) {
	repo := memory.NewFunnelRepo()
	u := usecase.NewFunnelUsecase(repo, false)

	assert.Equal(t, "Данных по воронке пока нет", u.Chart())

	u.Reach(1, usecase.StageName)
	u.Reach(2, usecase.StageName)
	u.Reach(1, usecase.StagePhone)

	chart := u.Chart()
	assert.Contains(t, chart, "Имя: 2")
	assert.Contains(t, chart, "Телефон: 1")
	assert.Contains(t, chart, "Лид: 0")
}
