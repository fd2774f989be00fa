package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"leadform-telegram-bot/internal/domain"
)

// LeadForwarder — внешний канал доставки заявки (CRM, таблицы и т.п.).
// Доставка best-effort: реализация логирует ошибки и никогда их не возвращает.
type LeadForwarder interface {
	Forward(ctx context.Context, lead domain.Lead)
}

// Intake финализирует заполненную анкету: сегментация, сохранение,
// передача в интеграции и уведомление администраторов.
type Intake struct {
	segmenter *Segmenter
	repo      domain.LeadRepository
	forwarder LeadForwarder
	sender    domain.MessageSender

	adminIDs          map[int64]struct{}
	statusLabels      map[domain.Status]string
	notifyOnDuplicate bool
	logger            *slog.Logger

	now func() time.Time
}

func NewIntake(segmenter *Segmenter, repo domain.LeadRepository, forwarder LeadForwarder, sender domain.MessageSender, adminIDs map[int64]struct{}, statusLabels map[domain.Status]string, notifyOnDuplicate bool, logger *slog.Logger) *Intake {
	if logger == nil {
		logger = slog.Default()
	}
	return &Intake{
		segmenter:         segmenter,
		repo:              repo,
		forwarder:         forwarder,
		sender:            sender,
		adminIDs:          adminIDs,
		statusLabels:      statusLabels,
		notifyOnDuplicate: notifyOnDuplicate,
		logger:            logger,
		now:               time.Now,
	}
}

// Finalize сохраняет заявку и возвращает её вместе с признаком дубликата.
// Ошибка сохранения возвращается вызывающему — сессия пользователя при
// этом не трогается и анкету можно завершить повторно. Сбои интеграций и
// уведомлений только логируются.
func (u *Intake) Finalize(ctx context.Context, chatID int64, data FormData) (domain.Lead, bool, error) {
	now := u.now()
	lead := domain.Lead{
		ChatID:               chatID,
		CreatedAt:            now,
		UpdatedAt:            now,
		Name:                 data.Name,
		Phone:                data.Phone,
		Email:                data.Email,
		BudgetKey:            data.BudgetKey,
		BudgetLabel:          data.BudgetLabel,
		Region:               data.Region,
		TimeframeKey:         data.TimeframeKey,
		TimeframeLabel:       data.TimeframeLabel,
		ContactedBefore:      data.ContactedBefore,
		ContactedBeforeLabel: data.ContactedBeforeLabel,
		Status:               u.segmenter.Classify(data.BudgetKey, data.TimeframeKey),
	}
	lead.RawPayload = rawPayload(lead)

	id, duplicate, err := u.repo.SaveLead(lead)
	if err != nil {
		return domain.Lead{}, false, fmt.Errorf("save lead: %w", err)
	}
	lead.ID = id

	if !duplicate || u.notifyOnDuplicate {
		if u.forwarder != nil {
			u.forwarder.Forward(ctx, lead)
		}
		u.notifyAdmins(lead)
	}
	return lead, duplicate, nil
}

func (u *Intake) notifyAdmins(lead domain.Lead) {
	if len(u.adminIDs) == 0 || u.sender == nil {
		return
	}
	text := u.formatLeadMessage(lead)
	for adminID := range u.adminIDs {
		if err := u.sender.SendText(adminID, text); err != nil {
			u.logger.Error("admin notify failed", "admin_id", adminID, "lead_id", lead.ID, "error", err)
		}
	}
}

func (u *Intake) formatLeadMessage(lead domain.Lead) string {
	return fmt.Sprintf(
		"🔥 Новый ЛИД\nСтатус: %s\nИмя: %s\nТелефон: %s\nEmail: %s\nСумма: %s\nРегион: %s\nСрок: %s\nОбращались: %s",
		u.statusLabel(lead.Status),
		orDash(lead.Name),
		orDash(lead.Phone),
		orDash(lead.Email),
		orDash(lead.BudgetLabel),
		orDash(lead.Region),
		orDash(lead.TimeframeLabel),
		orDash(lead.ContactedBeforeLabel),
	)
}

func (u *Intake) statusLabel(s domain.Status) string {
	if label, ok := u.statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

// rawPayload — полный JSON-снимок исходной заявки для колонки raw_payload.
func rawPayload(lead domain.Lead) string {
	snapshot := map[string]any{
		"created_at":             lead.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		"name":                   lead.Name,
		"phone":                  lead.Phone,
		"email":                  lead.Email,
		"budget_key":             lead.BudgetKey,
		"budget_label":           lead.BudgetLabel,
		"region":                 lead.Region,
		"timeframe_key":          lead.TimeframeKey,
		"timeframe_label":        lead.TimeframeLabel,
		"contacted_before":       lead.ContactedBefore,
		"contacted_before_label": lead.ContactedBeforeLabel,
		"status":                 string(lead.Status),
	}
	b, err := json.Marshal(snapshot)
	if err != nil {
		return "{}"
	}
	return string(b)
}
