package webhook

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"leadform-telegram-bot/internal/domain"
)

// Payload — нормализованная заявка для внешних систем.
type Payload struct {
	Niche           string `json:"niche"`
	CreatedAt       string `json:"created_at"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Budget          string `json:"budget"`
	BudgetKey       string `json:"budget_key"`
	Region          string `json:"region"`
	Timeframe       string `json:"timeframe"`
	TimeframeKey    string `json:"timeframe_key"`
	ContactedBefore string `json:"contacted_before"`
	Status          string `json:"status"`
}

var mirrorHeader = []string{
	"created_at", "name", "phone", "email", "budget", "budget_key",
	"region", "timeframe", "timeframe_key", "contacted_before", "status",
}

// Forwarder доставляет заявку во внешние веб-хуки и (опционально)
// дублирует её строкой в локальный CSV. Доставка best-effort: любой сбой
// логируется и не влияет ни на остальные назначения, ни на вызывающего.
type Forwarder struct {
	niche      string
	urls       []string
	csvPath    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func NewForwarder(niche string, urls []string, opts ...func(*Forwarder)) *Forwarder {
	f := &Forwarder{
		niche:      niche,
		timeout:    10 * time.Second,
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, u := range urls {
		if strings.TrimSpace(u) != "" {
			f.urls = append(f.urls, u)
		}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithCSVMirror(path string) func(*Forwarder) {
	return func(f *Forwarder) { f.csvPath = strings.TrimSpace(path) }
}

func WithTimeout(d time.Duration) func(*Forwarder) {
	return func(f *Forwarder) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithHTTPClient(c *http.Client) func(*Forwarder) {
	return func(f *Forwarder) {
		if c != nil {
			f.httpClient = c
		}
	}
}

func WithLogger(logger *slog.Logger) func(*Forwarder) {
	return func(f *Forwarder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func (f *Forwarder) Forward(ctx context.Context, lead domain.Lead) {
	payload := Payload{
		Niche:           f.niche,
		CreatedAt:       lead.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		Name:            lead.Name,
		Phone:           lead.Phone,
		Email:           lead.Email,
		Budget:          lead.BudgetLabel,
		BudgetKey:       lead.BudgetKey,
		Region:          lead.Region,
		Timeframe:       lead.TimeframeLabel,
		TimeframeKey:    lead.TimeframeKey,
		ContactedBefore: lead.ContactedBefore,
		Status:          string(lead.Status),
	}

	for _, url := range f.urls {
		f.post(ctx, url, payload)
	}

	if f.csvPath != "" {
		if err := appendMirrorRow(f.csvPath, payload); err != nil {
			f.logger.Error("csv mirror append failed", "path", f.csvPath, "error", err)
		}
	}
}

func (f *Forwarder) post(ctx context.Context, url string, payload Payload) {
	body, err := json.Marshal(payload)
	if err != nil {
		f.logger.Error("webhook payload marshal failed", "url", url, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		f.logger.Error("webhook request build failed", "url", url, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error("webhook push failed", "url", url, "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		f.logger.Error("webhook push failed", "url", url, "status", resp.StatusCode, "body", string(snippet))
	}
}

// appendMirrorRow дописывает строку в CSV-зеркало, создавая файл
// с заголовком при первом обращении.
func appendMirrorRow(path string, p Payload) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if writeHeader {
		if err := w.Write(mirrorHeader); err != nil {
			return err
		}
	}
	row := []string{
		p.CreatedAt, p.Name, p.Phone, p.Email, p.Budget, p.BudgetKey,
		p.Region, p.Timeframe, p.TimeframeKey, p.ContactedBefore, p.Status,
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
