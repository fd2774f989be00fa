package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"leadform-telegram-bot/internal/domain"
)

// Config — все настройки процесса, читаются из окружения один раз при старте.
type Config struct {
	BotToken  string
	AdminIDs  map[int64]struct{}
	SQLiteDSN string

	NicheName      string
	CurrencySymbol string

	// Тексты анкеты (переопределяются через окружение)
	IntroText         string
	QuestionName      string
	QuestionPhone     string
	QuestionEmail     string
	QuestionBudget    string
	QuestionRegion    string
	QuestionTimeframe string
	QuestionContacted string
	ThankYouMessage   string
	DuplicateMessage  string

	BudgetOptions    []domain.BudgetOption
	TimeframeOptions []domain.TimeframeOption
	StatusLabels     map[domain.Status]string

	HotBudgetMin  int
	HotMaxDays    int
	WarmBudgetMin int
	WarmMaxDays   int

	// Пустой список — регион вводится свободным текстом
	RegionOptions []string

	AskEmail       bool
	PhoneMinDigits int

	CRMWebhookURL     string
	SheetsWebhookURL  string
	SheetsCSVPath     string
	WebhookTimeout    time.Duration
	NotifyOnDuplicate bool
}

// Load собирает конфигурацию из переменных окружения с дефолтами,
// совпадающими с исходной анкетой по ипотеке.
func Load() (*Config, error) {
	token := strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if token == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}

	niche := getenv("NICHE_NAME", "Ипотека")
	currency := getenv("CURRENCY_SYMBOL", "$")

	lowMax := getenvInt("BUDGET_LOW_MAX", 100000)
	midMax := getenvInt("BUDGET_MID_MAX", 300000)

	cfg := &Config{
		BotToken:  token,
		AdminIDs:  parseAdminIDs(os.Getenv("ADMIN_IDS")),
		SQLiteDSN: getenv("LEADS_SQLITE_DSN", "leads.db"),

		NicheName:      niche,
		CurrencySymbol: currency,

		IntroText: getenv("INTRO_TEXT",
			fmt.Sprintf("Привет! Я помогу вам подобрать %s.\nОтветьте на несколько вопросов — это займёт всего пару минут.", strings.ToLower(niche))),
		QuestionName:      getenv("QUESTION_NAME", "Как вас зовут?"),
		QuestionPhone:     getenv("QUESTION_PHONE", "Поделитесь, пожалуйста, вашим номером телефона."),
		QuestionEmail:     getenv("QUESTION_EMAIL", "Можете оставить email для получения подробностей."),
		QuestionBudget:    getenv("QUESTION_BUDGET", "Какую сумму кредита планируете?"),
		QuestionRegion:    getenv("QUESTION_REGION", "В каком регионе хотите взять ипотеку?"),
		QuestionTimeframe: getenv("QUESTION_TIMEFRAME", "Когда планируете оформить ипотеку?"),
		QuestionContacted: getenv("QUESTION_CONTACTED", "Уже обращались к банкам или брокерам?"),
		ThankYouMessage:   getenv("THANK_YOU_MESSAGE", "Спасибо! Мы получили вашу заявку и свяжемся с вами в ближайшее время."),
		DuplicateMessage:  getenv("DUPLICATE_MESSAGE", "Спасибо! Мы уже получили заявку с этим номером и скоро свяжемся."),

		BudgetOptions: []domain.BudgetOption{
			{Key: "low", Label: fmt.Sprintf("До %s%s", formatMoney(lowMax), currency), Min: 0, Max: lowMax},
			{Key: "mid", Label: fmt.Sprintf("%s–%s%s", formatMoney(lowMax), formatMoney(midMax), currency), Min: lowMax, Max: midMax},
			{Key: "high", Label: fmt.Sprintf("Более %s%s", formatMoney(midMax), currency), Min: midMax},
		},
		TimeframeOptions: []domain.TimeframeOption{
			{Key: "week", Label: "В течение недели", MaxDays: 7},
			{Key: "month", Label: "В течение месяца", MaxDays: 30},
			{Key: "quarter", Label: "Через 1–3 месяца", MaxDays: 90},
		},
		StatusLabels: map[domain.Status]string{
			domain.StatusHot:  "Горячий",
			domain.StatusWarm: "Тёплый",
			domain.StatusCold: "Холодный",
		},

		HotBudgetMin:  getenvInt("HOT_BUDGET_MIN", lowMax),
		HotMaxDays:    getenvInt("HOT_MAX_DAYS", 30),
		WarmBudgetMin: getenvInt("WARM_BUDGET_MIN", lowMax),
		WarmMaxDays:   getenvInt("WARM_MAX_DAYS", 90),

		RegionOptions: splitCSV(os.Getenv("REGION_OPTIONS")),

		AskEmail:       getenv("ASK_EMAIL", "1") == "1",
		PhoneMinDigits: getenvInt("PHONE_MIN_DIGITS", 10),

		CRMWebhookURL:     strings.TrimSpace(os.Getenv("CRM_WEBHOOK_URL")),
		SheetsWebhookURL:  strings.TrimSpace(os.Getenv("SHEETS_WEBHOOK_URL")),
		SheetsCSVPath:     strings.TrimSpace(os.Getenv("SHEETS_CSV_PATH")),
		WebhookTimeout:    time.Duration(getenvInt("WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second,
		NotifyOnDuplicate: os.Getenv("NOTIFY_ON_DUPLICATE") == "1",
	}
	return cfg, nil
}

func (c *Config) IsAdmin(chatID int64) bool {
	_, ok := c.AdminIDs[chatID]
	return ok
}

func (c *Config) StatusLabel(s domain.Status) string {
	if label, ok := c.StatusLabels[s]; ok {
		return label
	}
	return string(s)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseAdminIDs(raw string) map[int64]struct{} {
	ids := map[int64]struct{}{}
	for _, part := range splitCSV(raw) {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// formatMoney разделяет тысячи пробелами: 100000 -> "100 000"
func formatMoney(v int) string {
	s := strconv.Itoa(v)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
