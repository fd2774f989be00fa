package usecase

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"leadform-telegram-bot/internal/domain"
)

var exportHeader = []string{"created_at", "name", "phone", "email", "budget", "region", "timeframe", "status"}

// ExportCSV выгружает заявки за период [start, end] включительно в CSV
// (по возрастанию даты создания), готовый к отправке файлом.
func ExportCSV(repo domain.LeadRepository, start, end time.Time) ([]byte, error) {
	leads, err := repo.Export(start, end)
	if err != nil {
		return nil, fmt.Errorf("export leads: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, lead := range leads {
		row := []string{
			lead.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			lead.Name,
			lead.Phone,
			lead.Email,
			lead.BudgetLabel,
			lead.Region,
			lead.TimeframeLabel,
			string(lead.Status),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
