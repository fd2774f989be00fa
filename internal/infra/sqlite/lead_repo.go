package sqlite

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"leadform-telegram-bot/internal/domain"
)

// Метки времени храним текстом в UTC, чтобы date() в SQL и CSV-выгрузка
// совпадали байт в байт.
const timeLayout = "2006-01-02 15:04:05"

type LeadRepo struct {
	db *sql.DB
}

func NewLeadRepo(dsn string) (*LeadRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateLeads(db); err != nil {
		return nil, err
	}
	return &LeadRepo{db: db}, nil
}

func migrateLeads(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS leads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chat_id INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    name TEXT,
    phone TEXT UNIQUE NOT NULL,
    email TEXT,
    budget_key TEXT,
    budget_label TEXT,
    region TEXT,
    timeframe_key TEXT,
    timeframe_label TEXT,
    contacted_before TEXT,
    contacted_before_label TEXT,
    status TEXT,
    duplicate_count INTEGER NOT NULL DEFAULT 0,
    raw_payload TEXT
);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`)
	return err
}

// SaveLead — атомарный upsert по телефону. Повторная заявка с тем же
// номером обновляет строку и наращивает duplicate_count; created_at
// исходной строки сохраняется. duplicate_count > 0 в возвращённой строке
// означает, что вставки не было.
func (r *LeadRepo) SaveLead(lead domain.Lead) (int64, bool, error) {
	now := time.Now()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = now
	}

	var id int64
	var dupCount int
	err := r.db.QueryRow(`
INSERT INTO leads(
    chat_id, created_at, updated_at, name, phone, email,
    budget_key, budget_label, region, timeframe_key, timeframe_label,
    contacted_before, contacted_before_label, status, raw_payload
) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(phone) DO UPDATE SET
    chat_id = excluded.chat_id,
    updated_at = excluded.updated_at,
    name = excluded.name,
    email = excluded.email,
    budget_key = excluded.budget_key,
    budget_label = excluded.budget_label,
    region = excluded.region,
    timeframe_key = excluded.timeframe_key,
    timeframe_label = excluded.timeframe_label,
    contacted_before = excluded.contacted_before,
    contacted_before_label = excluded.contacted_before_label,
    status = excluded.status,
    duplicate_count = leads.duplicate_count + 1,
    raw_payload = excluded.raw_payload
RETURNING id, duplicate_count`,
		lead.ChatID,
		lead.CreatedAt.UTC().Format(timeLayout),
		lead.UpdatedAt.UTC().Format(timeLayout),
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.BudgetKey,
		lead.BudgetLabel,
		lead.Region,
		lead.TimeframeKey,
		lead.TimeframeLabel,
		lead.ContactedBefore,
		lead.ContactedBeforeLabel,
		string(lead.Status),
		lead.RawPayload,
	).Scan(&id, &dupCount)
	if err != nil {
		return 0, false, err
	}
	return id, dupCount > 0, nil
}

func (r *LeadRepo) Stats() (domain.Stats, error) {
	var s domain.Stats
	err := r.db.QueryRow(`
SELECT COUNT(*),
       COALESCE(SUM(status = 'hot'), 0),
       COALESCE(SUM(status = 'warm'), 0),
       COALESCE(SUM(status = 'cold'), 0)
FROM leads`).Scan(&s.Total, &s.Hot, &s.Warm, &s.Cold)
	if err != nil {
		return domain.Stats{}, err
	}
	return s, nil
}

func (r *LeadRepo) Export(start, end time.Time) ([]domain.Lead, error) {
	rows, err := r.db.Query(`
SELECT id, chat_id, created_at, updated_at, name, phone, email,
       budget_key, budget_label, region, timeframe_key, timeframe_label,
       contacted_before, contacted_before_label, status, duplicate_count, raw_payload
FROM leads
WHERE date(created_at) BETWEEN date(?) AND date(?)
ORDER BY created_at ASC`,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		var lead domain.Lead
		var createdAt, updatedAt, status string
		if err := rows.Scan(
			&lead.ID, &lead.ChatID, &createdAt, &updatedAt, &lead.Name, &lead.Phone, &lead.Email,
			&lead.BudgetKey, &lead.BudgetLabel, &lead.Region, &lead.TimeframeKey, &lead.TimeframeLabel,
			&lead.ContactedBefore, &lead.ContactedBeforeLabel, &status, &lead.DuplicateCount, &lead.RawPayload,
		); err != nil {
			return nil, err
		}
		lead.Status = domain.Status(status)
		lead.CreatedAt, _ = time.ParseInLocation(timeLayout, createdAt, time.UTC)
		lead.UpdatedAt, _ = time.ParseInLocation(timeLayout, updatedAt, time.UTC)
		out = append(out, lead)
	}
	return out, rows.Err()
}

func (r *LeadRepo) ListChatIDsByStatus(status domain.Status) ([]int64, error) {
	rows, err := r.db.Query(`SELECT DISTINCT chat_id FROM leads WHERE status = ?`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0, 64)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
