package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"emlak-backend/internal/auth"
	"emlak-backend/internal/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockEnqueuer struct{ mock.Mock }

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(task.Type(), string(task.Payload()))
	info, _ := args.Get(0).(*asynq.TaskInfo)
	return info, args.Error(1)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	return m.Called(to, subject, string(rawMessage)).Error(0)
}

type users map[uint]*models.User

func (u users) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	if usr, ok := u[id]; ok {
		return usr, nil
	}
	return nil, auth.ErrUserNotFound
}

func TestQueue_EnqueuesSnapshot(t *testing.T) {
	client := &mockEnqueuer{}
	client.On("EnqueueContext", TypeListingModerated, mock.MatchedBy(func(raw string) bool {
		var p ListingPayload
		return json.Unmarshal([]byte(raw), &p) == nil &&
			p.PropertyID == 7 && p.Status == models.StatusRejected && p.Reason == "eksik fotoğraf"
	})).Return(&asynq.TaskInfo{ID: "t1"}, nil).Once()

	q := NewQueue(client, quiet)
	err := q.ListingModerated(context.Background(), &models.Property{
		ID: 7, Title: "Daire", CreatedBy: 3, ListingStatus: models.StatusRejected, ModerationReason: "eksik fotoğraf",
	})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestQueue_PropagatesEnqueueError(t *testing.T) {
	client := &mockEnqueuer{}
	client.On("EnqueueContext", TypeListingSubmitted, mock.Anything).Return(nil, errors.New("redis down"))

	err := NewQueue(client, quiet).ListingSubmitted(context.Background(), &models.Property{ID: 1})
	assert.ErrorContains(t, err, "redis down")
}

func task(t *testing.T, typ string, p ListingPayload) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return asynq.NewTask(typ, b)
}

func newProcessor(sender Sender, admin string) *Processor {
	p := NewProcessor(ProcessorOptions{
		Users:      users{3: {ID: 3, Name: "Zeynep", Email: "zeynep@emlak.test"}},
		Sender:     sender,
		From:       "noreply@emlak.test",
		AdminEmail: admin,
		BaseURL:    "https://x.test",
		Logger:     quiet,
	})
	p.now = func() time.Time { return time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC) }
	return p
}

func TestProcessor_Submitted(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", []string{"admin@emlak.test"}, "Onay bekleyen ilan: Bahçeli ev",
		mock.MatchedBy(func(raw string) bool { return strings.Contains(raw, "https://x.test/admin/properties/5") })).
		Return(nil).Once()

	err := newProcessor(sender, "admin@emlak.test").HandleListingSubmitted(context.Background(),
		task(t, TypeListingSubmitted, ListingPayload{PropertyID: 5, Title: "Bahçeli ev", CreatedBy: 3}))
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestProcessor_SubmittedWithoutAdminAddress(t *testing.T) {
	sender := &mockSender{}
	err := newProcessor(sender, "").HandleListingSubmitted(context.Background(),
		task(t, TypeListingSubmitted, ListingPayload{PropertyID: 5}))
	require.NoError(t, err)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessor_Moderated(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", []string{"zeynep@emlak.test"}, "İlanınız reddedildi: Daire",
		mock.MatchedBy(func(raw string) bool { return strings.Contains(raw, "Gerekçe: eksik fotoğraf") })).
		Return(nil).Once()

	p := newProcessor(sender, "")
	err := p.HandleListingModerated(context.Background(), task(t, TypeListingModerated,
		ListingPayload{PropertyID: 7, Title: "Daire", CreatedBy: 3, Status: models.StatusRejected, Reason: "eksik fotoğraf"}))
	require.NoError(t, err)
	sender.AssertExpectations(t)

	// bilinmeyen sahip yeniden denenmez
	err = p.HandleListingModerated(context.Background(), task(t, TypeListingModerated,
		ListingPayload{PropertyID: 8, CreatedBy: 99, Status: models.StatusApproved}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestProcessor_BadPayloadSkipsRetry(t *testing.T) {
	p := newProcessor(&mockSender{}, "admin@emlak.test")
	err := p.HandleListingSubmitted(context.Background(), asynq.NewTask(TypeListingSubmitted, []byte("{bozuk")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = p.HandleListingSubmitted(context.Background(), task(t, TypeListingSubmitted, ListingPayload{}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestProcessor_SendFailureRetries(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp timeout"))

	err := newProcessor(sender, "admin@emlak.test").HandleListingSubmitted(context.Background(),
		task(t, TypeListingSubmitted, ListingPayload{PropertyID: 5, Title: "X"}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestBuildMessage(t *testing.T) {
	raw := string(BuildMessage("a@x.test", []string{"b@x.test", "c@x.test"}, "İlan", "satır1\nsatır2",
		time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)))
	assert.Contains(t, raw, "To: b@x.test, c@x.test\r\n")
	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.Contains(t, raw, "Date: Sun, 18 Oct 2026 10:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(raw, "satır1\r\nsatır2\r\n"))
}
