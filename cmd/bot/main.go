package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	telegramAdapter "leadform-telegram-bot/internal/adapter/telegram"
	"leadform-telegram-bot/internal/config"
	sqliteRepo "leadform-telegram-bot/internal/infra/sqlite"
	"leadform-telegram-bot/internal/infra/webhook"
	"leadform-telegram-bot/internal/usecase"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	go func() {
		_ = http.ListenAndServe(":8080", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
	}()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Ошибка создания бота: %v", err)
	}
	bot.Debug = false
	logger.Info("авторизован", "username", bot.Self.UserName)

	leadRepo, err := sqliteRepo.NewLeadRepo(cfg.SQLiteDSN)
	if err != nil {
		log.Fatalf("lead sqlite init error: %v", err)
	}
	userRepo, err := sqliteRepo.NewUserRepo(cfg.SQLiteDSN)
	if err != nil {
		log.Fatalf("user sqlite init error: %v", err)
	}
	funnelRepo, err := sqliteRepo.NewFunnelRepo(cfg.SQLiteDSN)
	if err != nil {
		log.Fatalf("funnel sqlite init error: %v", err)
	}
	statRepo, err := sqliteRepo.NewBroadcastStatRepo(cfg.SQLiteDSN)
	if err != nil {
		log.Fatalf("broadcast stat sqlite init error: %v", err)
	}

	form := usecase.NewForm(usecase.FormConfig{
		IntroText:         cfg.IntroText,
		QuestionName:      cfg.QuestionName,
		QuestionPhone:     cfg.QuestionPhone,
		QuestionEmail:     cfg.QuestionEmail,
		QuestionBudget:    cfg.QuestionBudget,
		QuestionRegion:    cfg.QuestionRegion,
		QuestionTimeframe: cfg.QuestionTimeframe,
		QuestionContacted: cfg.QuestionContacted,
		BudgetOptions:     cfg.BudgetOptions,
		TimeframeOptions:  cfg.TimeframeOptions,
		RegionOptions:     cfg.RegionOptions,
		AskEmail:          cfg.AskEmail,
		PhoneMinDigits:    cfg.PhoneMinDigits,
	})

	segmenter := usecase.NewSegmenter(cfg.BudgetOptions, cfg.TimeframeOptions,
		cfg.HotBudgetMin, cfg.HotMaxDays, cfg.WarmBudgetMin, cfg.WarmMaxDays)

	forwarder := webhook.NewForwarder(cfg.NicheName,
		[]string{cfg.CRMWebhookURL, cfg.SheetsWebhookURL},
		webhook.WithCSVMirror(cfg.SheetsCSVPath),
		webhook.WithTimeout(cfg.WebhookTimeout),
		webhook.WithLogger(logger),
	)

	sender := telegramAdapter.NewSender(bot)
	intake := usecase.NewIntake(segmenter, leadRepo, forwarder, sender,
		cfg.AdminIDs, cfg.StatusLabels, cfg.NotifyOnDuplicate, logger)

	funnelUC := usecase.NewFunnelUsecase(funnelRepo, cfg.AskEmail)
	broadcastUC := usecase.NewBroadcastUsecase(userRepo, leadRepo, sender, statRepo)

	handler := telegramAdapter.NewHandler(bot, form, intake, leadRepo, userRepo, broadcastUC, funnelUC,
		cfg.AdminIDs,
		telegramAdapter.Messages{ThankYou: cfg.ThankYouMessage, Duplicate: cfg.DuplicateMessage},
		logger,
	)
	logger.Info("бот запущен", "niche", cfg.NicheName)
	handler.Run()
}
