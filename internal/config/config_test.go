package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadform-telegram-bot/internal/domain"
)

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Ипотека", cfg.NicheName)
	assert.Equal(t, "leads.db", cfg.SQLiteDSN)
	assert.Empty(t, cfg.AdminIDs)
	assert.Empty(t, cfg.RegionOptions)
	assert.True(t, cfg.AskEmail)
	assert.Equal(t, 10, cfg.PhoneMinDigits)
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout)
	assert.False(t, cfg.NotifyOnDuplicate)

	require.Len(t, cfg.BudgetOptions, 3)
	assert.Equal(t, domain.BudgetOption{Key: "low", Label: "До 100 000$", Min: 0, Max: 100000}, cfg.BudgetOptions[0])
	assert.Equal(t, domain.BudgetOption{Key: "mid", Label: "100 000–300 000$", Min: 100000, Max: 300000}, cfg.BudgetOptions[1])
	assert.Equal(t, domain.BudgetOption{Key: "high", Label: "Более 300 000$", Min: 300000}, cfg.BudgetOptions[2])

	require.Len(t, cfg.TimeframeOptions, 3)
	assert.Equal(t, 7, cfg.TimeframeOptions[0].MaxDays)
	assert.Equal(t, 30, cfg.TimeframeOptions[1].MaxDays)
	assert.Equal(t, 90, cfg.TimeframeOptions[2].MaxDays)

	// пороги сегментации по умолчанию привязаны к нижней границе "mid"
	assert.Equal(t, 100000, cfg.HotBudgetMin)
	assert.Equal(t, 30, cfg.HotMaxDays)
	assert.Equal(t, 100000, cfg.WarmBudgetMin)
	assert.Equal(t, 90, cfg.WarmMaxDays)

	assert.Contains(t, cfg.IntroText, "ипотека")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "100, 200,bogus,")
	t.Setenv("NICHE_NAME", "Автокредит")
	t.Setenv("CURRENCY_SYMBOL", "₽")
	t.Setenv("BUDGET_LOW_MAX", "500000")
	t.Setenv("BUDGET_MID_MAX", "1500000")
	t.Setenv("HOT_MAX_DAYS", "14")
	t.Setenv("REGION_OPTIONS", "Москва, Санкт-Петербург ,Казань")
	t.Setenv("ASK_EMAIL", "0")
	t.Setenv("PHONE_MIN_DIGITS", "11")
	t.Setenv("WEBHOOK_TIMEOUT_SECONDS", "3")
	t.Setenv("NOTIFY_ON_DUPLICATE", "1")
	t.Setenv("QUESTION_NAME", "Ваше имя?")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsAdmin(100))
	assert.True(t, cfg.IsAdmin(200))
	assert.False(t, cfg.IsAdmin(300))
	assert.Len(t, cfg.AdminIDs, 2)

	assert.Equal(t, "Автокредит", cfg.NicheName)
	assert.Equal(t, "До 500 000₽", cfg.BudgetOptions[0].Label)
	assert.Equal(t, "500 000–1 500 000₽", cfg.BudgetOptions[1].Label)
	assert.Equal(t, 500000, cfg.HotBudgetMin) // дефолт следует за BUDGET_LOW_MAX
	assert.Equal(t, 14, cfg.HotMaxDays)
	assert.Equal(t, []string{"Москва", "Санкт-Петербург", "Казань"}, cfg.RegionOptions)
	assert.False(t, cfg.AskEmail)
	assert.Equal(t, 11, cfg.PhoneMinDigits)
	assert.Equal(t, 3*time.Second, cfg.WebhookTimeout)
	assert.True(t, cfg.NotifyOnDuplicate)
	assert.Equal(t, "Ваше имя?", cfg.QuestionName)
}

func TestStatusLabel(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Горячий", cfg.StatusLabel(domain.StatusHot))
	assert.Equal(t, "Тёплый", cfg.StatusLabel(domain.StatusWarm))
	assert.Equal(t, "Холодный", cfg.StatusLabel(domain.StatusCold))
	assert.Equal(t, "unknown", cfg.StatusLabel(domain.Status("unknown")))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0", formatMoney(0))
	assert.Equal(t, "999", formatMoney(999))
	assert.Equal(t, "1 000", formatMoney(1000))
	assert.Equal(t, "100 000", formatMoney(100000))
	assert.Equal(t, "1 500 000", formatMoney(1500000))
}
