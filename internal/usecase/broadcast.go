package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"leadform-telegram-bot/internal/domain"
)

type BroadcastState string

const (
	BStateIdle     BroadcastState = "idle"
	BStateAudience BroadcastState = "audience"
	BStateEnter    BroadcastState = "enter_text"
	BStateConfirm  BroadcastState = "confirm"
)

// Аудитории рассылки: все пользователи бота либо лиды нужного сегмента.
const (
	AudienceAll  = "all"
	AudienceHot  = "hot"
	AudienceWarm = "warm"
	AudienceCold = "cold"
)

var audienceLabels = map[string]string{
	AudienceAll:  "Все пользователи",
	AudienceHot:  "Горячие лиды",
	AudienceWarm: "Тёплые лиды",
	AudienceCold: "Холодные лиды",
}

type BroadcastSender interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, fileID string, caption string) error
}

type BroadcastStat struct {
	Audience  string
	Total     int
	Sent      int
	Failed    int
	CreatedAt time.Time
}

type BroadcastStatRepository interface {
	Save(stat BroadcastStat) error
	ListRecent(n int) ([]BroadcastStat, error)
}

type BroadcastSession struct {
	State       BroadcastState
	Audience    string
	Text        string
	PhotoFileID string
	Caption     string
}

// BroadcastUsecase — рассылка сообщения выбранной аудитории с подсчётом
// результата. Ошибка доставки одному получателю не прерывает остальных.
type BroadcastUsecase struct {
	Users  domain.UserRepository
	Leads  domain.LeadRepository
	Sender BroadcastSender
	Stat   BroadcastStatRepository
}

func NewBroadcastUsecase(users domain.UserRepository, leads domain.LeadRepository, sender BroadcastSender, stat BroadcastStatRepository) *BroadcastUsecase {
	return &BroadcastUsecase{Users: users, Leads: leads, Sender: sender, Stat: stat}
}

func (u *BroadcastUsecase) Start(s *BroadcastSession) (string, []string) {
	*s = BroadcastSession{State: BStateAudience}
	return "Кому отправить рассылку?", []string{
		audienceLabels[AudienceAll],
		audienceLabels[AudienceHot],
		audienceLabels[AudienceWarm],
		audienceLabels[AudienceCold],
	}
}

func (u *BroadcastUsecase) ChooseAudience(s *BroadcastSession, choice string) (string, []string) {
	for key, label := range audienceLabels {
		if choice == label {
			s.Audience = key
			s.State = BStateEnter
			return "Введите текст рассылки сообщением или пришлите фото с подписью.", nil
		}
	}
	return "Выберите аудиторию из списка.", []string{
		audienceLabels[AudienceAll],
		audienceLabels[AudienceHot],
		audienceLabels[AudienceWarm],
		audienceLabels[AudienceCold],
	}
}

func (u *BroadcastUsecase) ReceiveText(s *BroadcastSession, text string) (string, []string, error) {
	if strings.TrimSpace(text) == "" {
		return "Текст не должен быть пустым. Введите текст рассылки:", nil, errors.New("empty")
	}
	s.Text = text
	s.PhotoFileID = ""
	s.Caption = ""
	s.State = BStateConfirm
	return fmt.Sprintf("Аудитория: %s. Подтвердите отправку рассылки:", audienceLabels[s.Audience]), []string{"Отправить", "Отмена"}, nil
}

func (u *BroadcastUsecase) ReceivePhoto(s *BroadcastSession, fileID, caption string) (string, []string) {
	if strings.TrimSpace(fileID) == "" {
		return "Не удалось получить изображение. Пришлите фото еще раз.", nil
	}
	s.PhotoFileID = fileID
	s.Caption = caption
	s.Text = ""
	s.State = BStateConfirm
	return fmt.Sprintf("Аудитория: %s. Подтвердите отправку рассылки с фото:", audienceLabels[s.Audience]), []string{"Отправить", "Отмена"}
}

func (u *BroadcastUsecase) ConfirmSend(s *BroadcastSession, cmd string) (string, error) {
	if cmd == "Отмена" {
		*s = BroadcastSession{State: BStateIdle}
		return "Рассылка отменена.", nil
	}
	if cmd != "Отправить" {
		return "Выберите: Отправить или Отмена", nil
	}
	ids, err := u.recipients(s.Audience)
	if err != nil {
		return "Не удалось получить список получателей", err
	}
	var sent, failed int
	for _, id := range ids {
		var sendErr error
		if s.PhotoFileID != "" {
			sendErr = u.Sender.SendPhoto(id, s.PhotoFileID, s.Caption)
		} else {
			sendErr = u.Sender.SendText(id, s.Text)
		}
		if sendErr != nil {
			failed++
			continue
		}
		sent++
	}
	audience := s.Audience
	*s = BroadcastSession{State: BStateIdle}
	_ = u.Stat.Save(BroadcastStat{Audience: audience, Total: len(ids), Sent: sent, Failed: failed})
	return fmt.Sprintf("Рассылка отправлена: %d успешно, %d с ошибками.", sent, failed), nil
}

func (u *BroadcastUsecase) recipients(audience string) ([]int64, error) {
	switch audience {
	case AudienceHot:
		return u.Leads.ListChatIDsByStatus(domain.StatusHot)
	case AudienceWarm:
		return u.Leads.ListChatIDsByStatus(domain.StatusWarm)
	case AudienceCold:
		return u.Leads.ListChatIDsByStatus(domain.StatusCold)
	default:
		return u.Users.ListChatIDs()
	}
}

func (u *BroadcastUsecase) StatsSummary(n int) string {
	stats, err := u.Stat.ListRecent(n)
	if err != nil || len(stats) == 0 {
		return "Статистика недоступна или отсутствует"
	}
	var b strings.Builder
	b.WriteString("Последние рассылки:\n")
	for i, s := range stats {
		label := audienceLabels[s.Audience]
		if label == "" {
			label = s.Audience
		}
		fmt.Fprintf(&b, "%d) %s — %s, всего: %d, отправлено: %d, ошибки: %d\n", i+1, s.CreatedAt.Format("2006-01-02 15:04"), label, s.Total, s.Sent, s.Failed)
	}
	return b.String()
}
