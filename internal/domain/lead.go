package domain

import "time"

type Status string

const (
	StatusHot  Status = "hot"
	StatusWarm Status = "warm"
	StatusCold Status = "cold"
)

// Lead — заявка, собранная за один проход анкеты.
// Телефон (только цифры) — натуральный ключ: повторная отправка
// с тем же номером обновляет существующую строку.
type Lead struct {
	ID                   int64
	ChatID               int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
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
	Status               Status
	DuplicateCount       int
	RawPayload           string
}

// BudgetOption — диапазон бюджета. Max == 0 означает «без верхней границы».
type BudgetOption struct {
	Key   string
	Label string
	Min   int
	Max   int
}

// TimeframeOption — срок, в пределах которого пользователь планирует действовать.
type TimeframeOption struct {
	Key     string
	Label   string
	MaxDays int
}

type Stats struct {
	Total int
	Hot   int
	Warm  int
	Cold  int
}

type LeadRepository interface {
	// SaveLead атомарно вставляет или обновляет заявку по телефону.
	// duplicate == true, если строка с таким телефоном уже существовала.
	SaveLead(lead Lead) (id int64, duplicate bool, err error)
	Stats() (Stats, error)
	// Export возвращает заявки, созданные в границах [start, end]
	// включительно, по возрастанию даты создания.
	Export(start, end time.Time) ([]Lead, error)
	ListChatIDsByStatus(status Status) ([]int64, error)
}
