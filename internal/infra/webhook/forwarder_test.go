package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadform-telegram-bot/internal/domain"
)

func sampleLead() domain.Lead {
	return domain.Lead{
		Name:            "Anna",
		Phone:           "12345678901",
		Email:           "anna@example.com",
		BudgetKey:       "mid",
		BudgetLabel:     "100 000–300 000$",
		Region:          "North",
		TimeframeKey:    "week",
		TimeframeLabel:  "В течение недели",
		ContactedBefore: "no",
		Status:          domain.StatusWarm,
		CreatedAt:       time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC),
	}
}

func TestForwardPostsToAllEndpoints(t *testing.T) {
	var got []Payload
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var p Payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		got = append(got, p)
	}
	srv1 := httptest.NewServer(http.HandlerFunc(handler))
	defer srv1.Close()
	srv2 := httptest.NewServer(http.HandlerFunc(handler))
	defer srv2.Close()

	f := NewForwarder("Ипотека", []string{srv1.URL, srv2.URL})
	f.Forward(context.Background(), sampleLead())

	require.Len(t, got, 2)
	assert.Equal(t, "Ипотека", got[0].Niche)
	assert.Equal(t, "2026-08-27 12:00:00", got[0].CreatedAt)
	assert.Equal(t, "12345678901", got[0].Phone)
	assert.Equal(t, "mid", got[0].BudgetKey)
	assert.Equal(t, "100 000–300 000$", got[0].Budget)
	assert.Equal(t, "no", got[0].ContactedBefore)
	assert.Equal(t, "warm", got[0].Status)
}

func TestForwardFailureDoesNotAbortOthers(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer failing.Close()

	var received int
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received++
	}))
	defer ok.Close()

	// первый URL падает, второй недостижим по DNS — паники и ошибки нет
	f := NewForwarder("Ипотека", []string{failing.URL, ok.URL, "http://127.0.0.1:1"},
		WithTimeout(2*time.Second))
	f.Forward(context.Background(), sampleLead())

	assert.Equal(t, 1, received)
}

func TestForwardSkipsEmptyURLs(t *testing.T) {
	f := NewForwarder("Ипотека", []string{"", "  "})
	// нет назначений — просто ничего не делает
	f.Forward(context.Background(), sampleLead())
}

func TestCSVMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror", "leads.csv")
	f := NewForwarder("Ипотека", nil, WithCSVMirror(path))

	f.Forward(context.Background(), sampleLead())
	f.Forward(context.Background(), sampleLead())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3) // заголовок пишется один раз
	assert.Equal(t, "created_at,name,phone,email,budget,budget_key,region,timeframe,timeframe_key,contacted_before,status", lines[0])
	assert.Contains(t, lines[1], "12345678901")
	assert.Contains(t, lines[1], "warm")
}
