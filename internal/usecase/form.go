package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"leadform-telegram-bot/internal/domain"
)

// Этапы анкеты. Линейная цепочка: idle -> name -> phone -> [email] ->
// budget -> region -> timeframe -> contacted -> idle.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageName      Stage = "name"
	StagePhone     Stage = "phone"
	StageEmail     Stage = "email"
	StageBudget    Stage = "budget"
	StageRegion    Stage = "region"
	StageTimeframe Stage = "timeframe"
	StageContacted Stage = "contacted"
	// StageLeadSaved — не этап диалога, а финальная отметка воронки.
	StageLeadSaved Stage = "lead_saved"
)

// Полезные нагрузки inline-кнопок
const (
	CallbackStart     = "lead_start"
	CallbackSkipEmail = "skip_email"

	budgetPrefix    = "budget:"
	regionPrefix    = "region:"
	timeframePrefix = "timeframe:"
	contactedPrefix = "contacted:"
)

// skip-слова для email, регистронезависимо
var emailSkipWords = map[string]struct{}{
	"пропустить": {},
	"skip":       {},
	"нет":        {},
}

// FormData — накопленные ответы одного прохода анкеты.
type FormData struct {
	Name                 string
	Phone                string
	Email                string
	BudgetKey            string
	BudgetLabel          string
	Region               string
	TimeframeKey         string
	TimeframeLabel       string
	ContactedBefore      string
	ContactedBeforeLabel string
}

// Session — состояние диалога одного пользователя. Живёт только в памяти,
// мутируется единственным активным обработчиком этого чата.
type Session struct {
	Stage Stage
	Data  FormData
}

// Input — входящее событие: текст, нажатие inline-кнопки или
// расшаренный контакт. Заполнено ровно одно из полей.
type Input struct {
	Text         string
	Callback     string
	ContactPhone string
}

type Button struct {
	Label string
	Data  string
}

// Reply — что отправить пользователю. Ack, если задан, уходит отдельным
// сообщением со снятием reply-клавиатуры перед основным текстом.
type Reply struct {
	Text           string
	Ack            string
	Buttons        [][]Button
	RequestContact bool
	RemoveKeyboard bool
	// Completed — анкета заполнена, пора финализировать заявку.
	Completed bool
}

// FormConfig — тексты и параметры валидации анкеты.
type FormConfig struct {
	IntroText         string
	QuestionName      string
	QuestionPhone     string
	QuestionEmail     string
	QuestionBudget    string
	QuestionRegion    string
	QuestionTimeframe string
	QuestionContacted string

	BudgetOptions    []domain.BudgetOption
	TimeframeOptions []domain.TimeframeOption
	RegionOptions    []string

	AskEmail       bool
	PhoneMinDigits int
}

// Form — конечный автомат анкеты, не зависящий от Telegram.
type Form struct {
	cfg FormConfig
}

func NewForm(cfg FormConfig) *Form { return &Form{cfg: cfg} }

// Start сбрасывает сессию и показывает приветствие с кнопкой входа в анкету.
func (f *Form) Start(s *Session) Reply {
	*s = Session{Stage: StageIdle}
	return Reply{
		Text:    f.cfg.IntroText,
		Buttons: [][]Button{{{Label: "Начать", Data: CallbackStart}}},
	}
}

// Cancel очищает сессию без сохранения чего-либо.
func (f *Form) Cancel(s *Session) Reply {
	*s = Session{Stage: StageIdle}
	return Reply{Text: "Ок, отменил. Чтобы начать заново, отправьте /start.", RemoveKeyboard: true}
}

func (f *Form) Handle(s *Session, in Input) Reply {
	// Вход в анкету доступен из любого этапа: начинаем с чистого листа.
	if in.Callback == CallbackStart {
		*s = Session{Stage: StageName}
		return Reply{Text: f.cfg.QuestionName}
	}

	switch s.Stage {
	case StageName:
		name := strings.TrimSpace(in.Text)
		if name == "" {
			return Reply{Text: "Пожалуйста, напишите ваше имя."}
		}
		s.Data.Name = name
		s.Stage = StagePhone
		return Reply{Text: f.cfg.QuestionPhone, RequestContact: true}

	case StagePhone:
		raw := in.ContactPhone
		if raw == "" {
			raw = in.Text
		}
		phone := extractDigits(raw)
		if len(phone) < f.cfg.PhoneMinDigits {
			return Reply{Text: fmt.Sprintf("Не удалось распознать номер. Введите телефон в формате +7XXXXXXXXXX (мин. %d цифр).", f.cfg.PhoneMinDigits)}
		}
		s.Data.Phone = phone
		if f.cfg.AskEmail {
			s.Stage = StageEmail
			return Reply{Ack: "Спасибо!", Text: f.cfg.QuestionEmail, Buttons: f.skipKeyboard()}
		}
		s.Stage = StageBudget
		return Reply{Ack: "Спасибо!", Text: f.cfg.QuestionBudget, Buttons: f.budgetKeyboard()}

	case StageEmail:
		if in.Callback == CallbackSkipEmail {
			s.Data.Email = ""
			return f.advanceToBudget(s)
		}
		text := strings.TrimSpace(in.Text)
		if _, skip := emailSkipWords[strings.ToLower(text)]; skip {
			s.Data.Email = ""
			return f.advanceToBudget(s)
		}
		if !validEmail(text) {
			return Reply{Text: "Похоже на некорректный email. Попробуйте ещё раз или нажмите «Пропустить».", Buttons: f.skipKeyboard()}
		}
		s.Data.Email = text
		return f.advanceToBudget(s)

	case StageBudget:
		key := strings.TrimPrefix(in.Callback, budgetPrefix)
		if key != in.Callback {
			for _, o := range f.cfg.BudgetOptions {
				if o.Key == key {
					s.Data.BudgetKey = o.Key
					s.Data.BudgetLabel = o.Label
					s.Stage = StageRegion
					return Reply{Text: f.cfg.QuestionRegion, Buttons: f.regionKeyboard()}
				}
			}
		}
		return Reply{Text: "Выберите вариант из списка.", Buttons: f.budgetKeyboard()}

	case StageRegion:
		if idx := strings.TrimPrefix(in.Callback, regionPrefix); idx != in.Callback {
			if i, err := strconv.Atoi(idx); err == nil && i >= 0 && i < len(f.cfg.RegionOptions) {
				s.Data.Region = f.cfg.RegionOptions[i]
				s.Stage = StageTimeframe
				return Reply{Text: f.cfg.QuestionTimeframe, Buttons: f.timeframeKeyboard()}
			}
		}
		region := strings.TrimSpace(in.Text)
		if region == "" {
			return Reply{Text: "Пожалуйста, укажите регион.", Buttons: f.regionKeyboard()}
		}
		s.Data.Region = region
		s.Stage = StageTimeframe
		return Reply{Text: f.cfg.QuestionTimeframe, Buttons: f.timeframeKeyboard()}

	case StageTimeframe:
		key := strings.TrimPrefix(in.Callback, timeframePrefix)
		if key != in.Callback {
			for _, o := range f.cfg.TimeframeOptions {
				if o.Key == key {
					s.Data.TimeframeKey = o.Key
					s.Data.TimeframeLabel = o.Label
					s.Stage = StageContacted
					return Reply{Text: f.cfg.QuestionContacted, Buttons: f.yesNoKeyboard()}
				}
			}
		}
		return Reply{Text: "Выберите вариант из списка.", Buttons: f.timeframeKeyboard()}

	case StageContacted:
		value := strings.TrimPrefix(in.Callback, contactedPrefix)
		if value == "yes" || value == "no" {
			s.Data.ContactedBefore = value
			if value == "yes" {
				s.Data.ContactedBeforeLabel = "Да"
			} else {
				s.Data.ContactedBeforeLabel = "Нет"
			}
			// Этап не сбрасываем: при ошибке сохранения пользователь
			// сможет нажать кнопку ещё раз.
			return Reply{Completed: true}
		}
		return Reply{Text: "Выберите «Да» или «Нет».", Buttons: f.yesNoKeyboard()}
	}

	// idle и всё нераспознанное — показываем вход в анкету
	return f.Start(s)
}

func (f *Form) advanceToBudget(s *Session) Reply {
	s.Stage = StageBudget
	return Reply{Text: f.cfg.QuestionBudget, Buttons: f.budgetKeyboard()}
}

func (f *Form) skipKeyboard() [][]Button {
	return [][]Button{{{Label: "Пропустить", Data: CallbackSkipEmail}}}
}

func (f *Form) budgetKeyboard() [][]Button {
	rows := make([][]Button, 0, len(f.cfg.BudgetOptions))
	for _, o := range f.cfg.BudgetOptions {
		rows = append(rows, []Button{{Label: o.Label, Data: budgetPrefix + o.Key}})
	}
	return rows
}

func (f *Form) timeframeKeyboard() [][]Button {
	rows := make([][]Button, 0, len(f.cfg.TimeframeOptions))
	for _, o := range f.cfg.TimeframeOptions {
		rows = append(rows, []Button{{Label: o.Label, Data: timeframePrefix + o.Key}})
	}
	return rows
}

// regionKeyboard — nil при свободном вводе региона.
// В callback кладём индекс, а не название: данные кнопки ограничены 64 байтами.
func (f *Form) regionKeyboard() [][]Button {
	if len(f.cfg.RegionOptions) == 0 {
		return nil
	}
	rows := make([][]Button, 0, len(f.cfg.RegionOptions))
	for i, r := range f.cfg.RegionOptions {
		rows = append(rows, []Button{{Label: r, Data: regionPrefix + strconv.Itoa(i)}})
	}
	return rows
}

func (f *Form) yesNoKeyboard() [][]Button {
	return [][]Button{{
		{Label: "Да", Data: contactedPrefix + "yes"},
		{Label: "Нет", Data: contactedPrefix + "no"},
	}}
}

func extractDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validEmail(text string) bool {
	local, dom, ok := strings.Cut(text, "@")
	if !ok {
		return false
	}
	return strings.TrimSpace(local) != "" && strings.Contains(dom, ".")
}
