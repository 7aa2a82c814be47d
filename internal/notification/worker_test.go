package notification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"parking-status-backend/internal/model"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func expiredEvent(slotID int, userID string) model.SlotEvent {
	reservationID := "res-1"
	return model.SlotEvent{
		ID:            "evt-1",
		Kind:          model.EventReservationExpired,
		SlotID:        slotID,
		ReservationID: &reservationID,
		UserID:        &userID,
		OccurredAt:    time.Now(),
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []model.SlotEvent
	done   chan struct{}
}

func (r *recordingSink) Handle(_ context.Context, event model.SlotEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	if r.done != nil {
		r.done <- struct{}{}
	}
	return nil
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, 4)

	wp.Dispatch(expiredEvent(2, "u1"))

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, 2, job.SlotID)
		assert.Equal(t, model.EventReservationExpired, job.Kind)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchDropsWhenFull(t *testing.T) {
	wp := NewWorkerPool(1, 1)

	wp.Dispatch(expiredEvent(1, "u1"))
	done := make(chan struct{})
	go func() {
		wp.Dispatch(expiredEvent(2, "u1"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}
	assert.Len(t, wp.Jobs(), 1)
}

func TestWorkerPool_FansOutToAllSinks(t *testing.T) {
	first := &recordingSink{done: make(chan struct{}, 1)}
	second := &recordingSink{done: make(chan struct{}, 1)}
	failing := SinkFunc(func(context.Context, model.SlotEvent) error {
		return errors.New("sink unavailable")
	})

	wp := NewWorkerPool(2, 8, first, failing)
	wp.AddSink(second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.Dispatch(expiredEvent(4, "u1"))

	for _, s := range []*recordingSink{first, second} {
		select {
		case <-s.done:
		case <-time.After(time.Second):
			t.Fatal("sink did not receive the event")
		}
		assert.Equal(t, 4, s.events[0].SlotID)
	}
}

func TestWebPushSink_Handle(t *testing.T) {
	gormDB, mock := newTestDB(t)
	sink := NewWebPushSink(gormDB, &webpush.Options{})
	ctx := context.Background()

	t.Run("sends notification for one subscription", func(t *testing.T) {
		subscription := model.PushSubscription{
			Endpoint: "https://example.com/push",
			P256DH:   "test_p256dh",
			Auth:     "test_auth",
			UserID:   "u1",
		}

		var sent []string
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "test_p256dh", sub.Keys.P256dh)
				sent = append(sent, string(payload))
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "user_id", "created_at"}).
				AddRow(subscription.Endpoint, subscription.P256DH, subscription.Auth, subscription.UserID, time.Now()))

		require.NoError(t, sink.Handle(ctx, expiredEvent(2, "u1")))
		assert.Equal(t, []string{"Reservation for slot 2 has expired"}, sent)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs("u2").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "user_id", "created_at"}).
				AddRow("https://example.com/expired", "k", "a", "u2", time.Now()))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, sink.Handle(ctx, expiredEvent(3, "u2")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lookup failure is returned", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs("u3").
			WillReturnError(errors.New("connection reset"))

		err := sink.Handle(ctx, expiredEvent(1, "u3"))
		assert.ErrorContains(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ignores other event kinds", func(t *testing.T) {
		sink.sender = &mockSender{
			SendFunc: func([]byte, *webpush.Subscription, *webpush.Options) (*http.Response, error) {
				t.Fatal("no notification expected")
				return nil, nil
			},
		}
		event := expiredEvent(1, "u1")
		event.Kind = model.EventReservationCreated

		require.NoError(t, sink.Handle(ctx, event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
