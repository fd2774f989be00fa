package telegram

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	chart "github.com/wcharczuk/go-chart/v2"

	"leadform-telegram-bot/internal/domain"
	"leadform-telegram-bot/internal/usecase"
)

// Messages — финальные тексты, которые отправляет адаптер.
type Messages struct {
	ThankYou  string
	Duplicate string
	NotSaved  string
}

type Handler struct {
	bot         *tgbotapi.BotAPI
	form        *usecase.Form
	intake      *usecase.Intake
	leadRepo    domain.LeadRepository
	userRepo    domain.UserRepository
	broadcastUC *usecase.BroadcastUsecase
	funnel      *usecase.FunnelUsecase
	adminIDs    map[int64]struct{}
	messages    Messages

	sessions      map[int64]*usecase.Session
	bcastSessions map[int64]*usecase.BroadcastSession
	logger        *slog.Logger
}

func NewHandler(bot *tgbotapi.BotAPI, form *usecase.Form, intake *usecase.Intake, leadRepo domain.LeadRepository, userRepo domain.UserRepository, broadcastUC *usecase.BroadcastUsecase, funnel *usecase.FunnelUsecase, adminIDs map[int64]struct{}, messages Messages, logger *slog.Logger) *Handler {
	if messages.NotSaved == "" {
		messages.NotSaved = "К сожалению, не удалось сохранить заявку. Попробуйте ещё раз."
	}
	return &Handler{
		bot:           bot,
		form:          form,
		intake:        intake,
		leadRepo:      leadRepo,
		userRepo:      userRepo,
		broadcastUC:   broadcastUC,
		funnel:        funnel,
		adminIDs:      adminIDs,
		messages:      messages,
		sessions:      make(map[int64]*usecase.Session),
		bcastSessions: make(map[int64]*usecase.BroadcastSession),
		logger:        logger,
	}
}

// trackFunnel — небольшой хелпер, чтобы не дублировать проверку на nil
func (h *Handler) trackFunnel(chatID int64, stage usecase.Stage) {
	if h.funnel != nil {
		h.funnel.Reach(chatID, stage)
	}
}

func (h *Handler) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)
	for update := range updates {
		if update.Message == nil && update.CallbackQuery == nil {
			continue
		}
		h.handleUpdate(update)
	}
}

func (h *Handler) handleUpdate(update tgbotapi.Update) {
	var chatID int64
	var text, callback string
	if update.Message != nil {
		chatID = update.Message.Chat.ID
		text = update.Message.Text
	} else {
		chatID = update.CallbackQuery.Message.Chat.ID
		callback = update.CallbackQuery.Data
		// закрыть "часики" на кнопке
		_, _ = h.bot.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, ""))
	}

	if !h.isAdmin(chatID) && h.userRepo != nil {
		_ = h.userRepo.SaveUser(chatID)
	}

	if update.Message != nil && update.Message.IsCommand() {
		h.handleCommand(chatID, update.Message)
		return
	}

	if h.isAdmin(chatID) && h.handleAdminInput(chatID, update, text, callback) {
		return
	}

	s := h.getSession(chatID)

	in := usecase.Input{Text: text, Callback: callback}
	if update.Message != nil && update.Message.Contact != nil {
		in = usecase.Input{ContactPhone: update.Message.Contact.PhoneNumber}
	}

	reply := h.form.Handle(s, in)
	h.trackFunnel(chatID, s.Stage)

	if reply.Completed {
		h.finalize(chatID, s)
		return
	}
	h.applyReply(chatID, reply)
}

func (h *Handler) handleCommand(chatID int64, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		s := h.getSession(chatID)
		h.applyReply(chatID, h.form.Start(s))
	case "cancel":
		s := h.getSession(chatID)
		h.applyReply(chatID, h.form.Cancel(s))
	case "stats":
		if !h.requireAdmin(chatID) {
			return
		}
		h.sendLeadStats(chatID)
	case "export":
		if !h.requireAdmin(chatID) {
			return
		}
		h.sendExport(chatID, msg.CommandArguments())
	case "admin":
		if !h.requireAdmin(chatID) {
			return
		}
		reply := tgbotapi.NewMessage(chatID, "Админ-меню")
		reply.ReplyMarkup = labelKeyboard([]string{"Создать рассылку", "Статистика рассылок", "Воронка"})
		_, _ = h.bot.Send(reply)
	default:
		h.sendText(chatID, "Не понял команду. Доступно: /start, /cancel.")
	}
}

func (h *Handler) requireAdmin(chatID int64) bool {
	if h.isAdmin(chatID) {
		return true
	}
	h.sendText(chatID, "Нет доступа.")
	if h.logger != nil {
		h.logger.Warn("admin denied", "chat_id", chatID)
	}
	return false
}

// handleAdminInput обрабатывает кнопки админ-меню и активную сессию
// рассылки. Возвращает false, если ввод не относится к админке — тогда
// админ проходит анкету как обычный пользователь.
func (h *Handler) handleAdminInput(chatID int64, update tgbotapi.Update, text, callback string) bool {
	// inline-кнопки админ-меню несут подпись в payload
	input := text
	if callback != "" {
		input = callback
	}

	switch input {
	case "Создать рассылку":
		s := h.getBSession(chatID)
		msg, opts := h.broadcastUC.Start(s)
		h.sendTextWithKeyboard(chatID, msg, opts)
		return true
	case "Статистика рассылок":
		h.sendText(chatID, h.broadcastUC.StatsSummary(5))
		return true
	case "Воронка":
		if h.funnel == nil {
			h.sendText(chatID, "Воронка недоступна")
			return true
		}
		labels, values := h.funnel.GraphData()
		if err := h.sendFunnelChart(chatID, labels, values); err != nil {
			if h.logger != nil {
				h.logger.Error("funnel chart failed", "error", err)
			}
			h.sendText(chatID, h.funnel.Chart())
		}
		return true
	}

	s := h.bcastSessions[chatID]
	if s == nil || s.State == usecase.BStateIdle {
		return false
	}
	if m := update.Message; m != nil && len(m.Photo) > 0 && s.State == usecase.BStateEnter {
		ph := m.Photo[len(m.Photo)-1]
		msg, opts := h.broadcastUC.ReceivePhoto(s, ph.FileID, m.Caption)
		h.sendTextWithKeyboard(chatID, msg, opts)
		return true
	}
	switch s.State {
	case usecase.BStateAudience:
		msg, opts := h.broadcastUC.ChooseAudience(s, input)
		h.sendTextWithKeyboard(chatID, msg, opts)
		return true
	case usecase.BStateEnter:
		msg, opts, _ := h.broadcastUC.ReceiveText(s, input)
		h.sendTextWithKeyboard(chatID, msg, opts)
		return true
	case usecase.BStateConfirm:
		msg, err := h.broadcastUC.ConfirmSend(s, input)
		if err != nil && h.logger != nil {
			h.logger.Error("broadcast failed", "chat_id", chatID, "error", err)
		}
		h.sendText(chatID, msg)
		return true
	}
	return false
}

func (h *Handler) finalize(chatID int64, s *usecase.Session) {
	lead, duplicate, err := h.intake.Finalize(context.Background(), chatID, s.Data)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("lead save failed", "chat_id", chatID, "error", err)
		}
		// Сессию не сбрасываем: пользователь может ответить ещё раз.
		h.sendText(chatID, h.messages.NotSaved)
		return
	}
	if h.logger != nil {
		h.logger.Info("lead saved", "chat_id", chatID, "lead_id", lead.ID, "status", lead.Status, "duplicate", duplicate)
	}
	h.trackFunnel(chatID, usecase.StageLeadSaved)
	*s = usecase.Session{Stage: usecase.StageIdle}

	if duplicate {
		h.sendTextRemoveKeyboard(chatID, h.messages.Duplicate)
		return
	}
	h.sendTextRemoveKeyboard(chatID, h.messages.ThankYou)
}

func (h *Handler) sendLeadStats(chatID int64) {
	stats, err := h.leadRepo.Stats()
	if err != nil {
		if h.logger != nil {
			h.logger.Error("lead stats failed", "error", err)
		}
		h.sendText(chatID, "Не удалось получить статистику.")
		return
	}
	h.sendText(chatID, fmt.Sprintf("Статистика лидов:\nВсего: %d\nГорячих: %d\nТёплых: %d\nХолодных: %d",
		stats.Total, stats.Hot, stats.Warm, stats.Cold))
}

// sendExport: /export без аргументов — последние 30 дней, одна дата — от
// неё до сегодня, две — явный диапазон (включительно).
func (h *Handler) sendExport(chatID int64, args string) {
	var start, end time.Time
	parts := strings.Fields(args)
	switch len(parts) {
	case 0:
		end = time.Now()
		start = end.AddDate(0, 0, -30)
	case 1:
		var ok bool
		if start, ok = parseDate(parts[0]); !ok {
			h.sendText(chatID, "Формат: /export YYYY-MM-DD YYYY-MM-DD")
			return
		}
		end = time.Now()
	default:
		var okStart, okEnd bool
		start, okStart = parseDate(parts[0])
		end, okEnd = parseDate(parts[1])
		if !okStart || !okEnd {
			h.sendText(chatID, "Формат: /export YYYY-MM-DD YYYY-MM-DD")
			return
		}
	}

	data, err := usecase.ExportCSV(h.leadRepo, start, end)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("export failed", "error", err)
		}
		h.sendText(chatID, "Не удалось сформировать выгрузку.")
		return
	}
	name := fmt.Sprintf("leads_%s_%s.csv", start.Format("2006-01-02"), end.Format("2006-01-02"))
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	if _, err := h.bot.Send(doc); err != nil && h.logger != nil {
		h.logger.Error("export send failed", "chat_id", chatID, "error", err)
	}
}

func parseDate(value string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (h *Handler) isAdmin(chatID int64) bool {
	_, ok := h.adminIDs[chatID]
	return ok
}

func (h *Handler) getSession(chatID int64) *usecase.Session {
	if s, ok := h.sessions[chatID]; ok {
		return s
	}
	s := &usecase.Session{Stage: usecase.StageIdle}
	h.sessions[chatID] = s
	return s
}

func (h *Handler) getBSession(chatID int64) *usecase.BroadcastSession {
	if s, ok := h.bcastSessions[chatID]; ok {
		return s
	}
	s := &usecase.BroadcastSession{State: usecase.BStateIdle}
	h.bcastSessions[chatID] = s
	return s
}

func (h *Handler) applyReply(chatID int64, r usecase.Reply) {
	if r.Ack != "" {
		h.sendTextRemoveKeyboard(chatID, r.Ack)
	}
	if r.Text == "" {
		return
	}
	msg := tgbotapi.NewMessage(chatID, r.Text)
	switch {
	case r.RequestContact:
		btn := tgbotapi.NewKeyboardButtonContact("Поделиться контактом")
		kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(btn))
		kb.ResizeKeyboard = true
		kb.OneTimeKeyboard = true
		msg.ReplyMarkup = kb
	case len(r.Buttons) > 0:
		msg.ReplyMarkup = inlineKeyboard(r.Buttons)
	case r.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	_, _ = h.bot.Send(msg)
}

func (h *Handler) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	_, _ = h.bot.Send(msg)
}

func (h *Handler) sendTextWithKeyboard(chatID int64, text string, opts []string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(opts) > 0 {
		msg.ReplyMarkup = labelKeyboard(opts)
	}
	_, _ = h.bot.Send(msg)
}

func (h *Handler) sendTextRemoveKeyboard(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, _ = h.bot.Send(msg)
}

func inlineKeyboard(rows [][]usecase.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		out = append(out, btns)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: out}
}

// labelKeyboard — кнопки админки: подпись и payload совпадают
func labelKeyboard(opts []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(opts))
	for _, o := range opts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o, o),
		))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// Реализация отправителя для юзкейсов
type Sender struct{ bot *tgbotapi.BotAPI }

func NewSender(bot *tgbotapi.BotAPI) *Sender { return &Sender{bot: bot} }

func (s *Sender) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)
	return err
}

func (s *Sender) SendPhoto(chatID int64, fileID string, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	_, err := s.bot.Send(photo)
	return err
}

func (h *Handler) sendFunnelChart(chatID int64, labels []string, values []int) error {
	bars := make([]chart.Value, 0, len(labels))
	maxVal := 0
	for i := range labels {
		v := values[i]
		if v > maxVal {
			maxVal = v
		}
		bars = append(bars, chart.Value{Value: float64(v), Label: labels[i]})
	}
	// Избежать ошибки invalid data range при нулевых значениях
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := chart.BarChart{
		Width:    1100,
		Height:   600,
		BarWidth: 56,
		Background: chart.Style{Padding: chart.Box{
			Top:    50,
			Left:   16,
			Right:  16,
			Bottom: 0,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return err
	}
	fname := "funnel_" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".png"
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fname, Bytes: buf.Bytes()})
	_, err := h.bot.Send(photo)
	return err
}
