package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadform-telegram-bot/internal/domain"
	"leadform-telegram-bot/internal/infra/memory"
	"leadform-telegram-bot/internal/usecase"
)

type fakeForwarder struct {
	leads []domain.Lead
}

func (f *fakeForwarder) Forward(_ context.Context, lead domain.Lead) {
	f.leads = append(f.leads, lead)
}

type fakeSender struct {
	texts  map[int64][]string
	failed map[int64]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{texts: map[int64][]string{}, failed: map[int64]bool{}}
}

func (f *fakeSender) SendText(chatID int64, text string) error {
	if f.failed[chatID] {
		return errors.New("blocked")
	}
	f.texts[chatID] = append(f.texts[chatID], text)
	return nil
}

func (f *fakeSender) SendPhoto(chatID int64, fileID, caption string) error {
	return f.SendText(chatID, "photo:"+fileID)
}

type failingLeadRepo struct{}

func (failingLeadRepo) SaveLead(domain.Lead) (int64, bool, error) {
	return 0, false, errors.New("disk full")
}
func (failingLeadRepo) Stats() (domain.Stats, error)          { return domain.Stats{}, nil }
func (failingLeadRepo) Export(_, _ time.Time) ([]domain.Lead, error) { return nil, nil }
func (failingLeadRepo) ListChatIDsByStatus(domain.Status) ([]int64, error) {
	return nil, nil
}

var testStatusLabels = map[domain.Status]string{
	domain.StatusHot:  "Горячий",
	domain.StatusWarm: "Тёплый",
	domain.StatusCold: "Холодный",
}

func testFormData() usecase.FormData {
	return usecase.FormData{
		Name:                 "Anna",
		Phone:                "12345678901",
		BudgetKey:            "mid",
		BudgetLabel:          "100 000–300 000$",
		Region:               "North",
		TimeframeKey:         "week",
		TimeframeLabel:       "В течение недели",
		ContactedBefore:      "no",
		ContactedBeforeLabel: "Нет",
	}
}

func TestIntakeFinalizeNewLead(t *testing.T) {
	repo := memory.NewLeadRepo()
	forwarder := &fakeForwarder{}
	sender := newFakeSender()
	admins := map[int64]struct{}{100: {}, 200: {}}

	intake := usecase.NewIntake(testSegmenter(), repo, forwarder, sender, admins, testStatusLabels, false, nil)

	lead, duplicate, err := intake.Finalize(context.Background(), 42, testFormData())
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, int64(1), lead.ID)
	assert.Equal(t, domain.StatusHot, lead.Status) // mid+week при порогах из testSegmenter
	assert.NotEmpty(t, lead.RawPayload)

	require.Len(t, forwarder.leads, 1)
	assert.Equal(t, "12345678901", forwarder.leads[0].Phone)

	// по одному уведомлению каждому администратору
	require.Len(t, sender.texts[100], 1)
	require.Len(t, sender.texts[200], 1)
	assert.Contains(t, sender.texts[100][0], "Anna")
	assert.Contains(t, sender.texts[100][0], "Горячий")

	stored, ok := repo.Get(lead.ID)
	require.True(t, ok)
	assert.Equal(t, 0, stored.DuplicateCount)
}

func TestIntakeFinalizeDuplicateSuppressed(t *testing.T) {
	repo := memory.NewLeadRepo()
	forwarder := &fakeForwarder{}
	sender := newFakeSender()
	admins := map[int64]struct{}{100: {}}

	intake := usecase.NewIntake(testSegmenter(), repo, forwarder, sender, admins, testStatusLabels, false, nil)

	first, _, err := intake.Finalize(context.Background(), 42, testFormData())
	require.NoError(t, err)

	data := testFormData()
	data.Name = "Anna B."
	second, duplicate, err := intake.Finalize(context.Background(), 42, data)
	require.NoError(t, err)

	assert.True(t, duplicate)
	assert.Equal(t, first.ID, second.ID)

	stored, ok := repo.Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, "Anna B.", stored.Name)
	assert.Equal(t, 1, stored.DuplicateCount)

	// при выключенных уведомлениях о дубликатах — ни пересылок, ни сообщений
	assert.Len(t, forwarder.leads, 1)
	assert.Len(t, sender.texts[100], 1)
}

func TestIntakeFinalizeDuplicateNotifyEnabled(t *testing.T) {
	repo := memory.NewLeadRepo()
	forwarder := &fakeForwarder{}
	sender := newFakeSender()
	admins := map[int64]struct{}{100: {}}

	intake := usecase.NewIntake(testSegmenter(), repo, forwarder, sender, admins, testStatusLabels, true, nil)

	_, _, err := intake.Finalize(context.Background(), 42, testFormData())
	require.NoError(t, err)
	_, duplicate, err := intake.Finalize(context.Background(), 42, testFormData())
	require.NoError(t, err)

	assert.True(t, duplicate)
	assert.Len(t, forwarder.leads, 2)
	assert.Len(t, sender.texts[100], 2)
}

func TestIntakeFinalizeSaveErrorPropagates(t *testing.T) {
	forwarder := &fakeForwarder{}
	sender := newFakeSender()

	intake := usecase.NewIntake(testSegmenter(), failingLeadRepo{}, forwarder, sender, map[int64]struct{}{100: {}}, testStatusLabels, false, nil)

	_, _, err := intake.Finalize(context.Background(), 42, testFormData())
	require.Error(t, err)
	// без сохранения — никаких побочных эффектов
	assert.Empty(t, forwarder.leads)
	assert.Empty(t, sender.texts)
}

func TestIntakeNotifyFailureDoesNotBlockOthers(t *testing.T) {
	repo := memory.NewLeadRepo()
	sender := newFakeSender()
	sender.failed[100] = true
	admins := map[int64]struct{}{100: {}, 200: {}}

	intake := usecase.NewIntake(testSegmenter(), repo, &fakeForwarder{}, sender, admins, testStatusLabels, false, nil)

	_, _, err := intake.Finalize(context.Background(), 42, testFormData())
	require.NoError(t, err)
	assert.Empty(t, sender.texts[100])
	assert.Len(t, sender.texts[200], 1)
}
