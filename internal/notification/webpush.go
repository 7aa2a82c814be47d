package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"parking-status-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WebPushSink tells a user that their reservation has run out.
type WebPushSink struct {
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWebPushSink creates a sink that sends through webpush-go.
func NewWebPushSink(db *gorm.DB, webpushOptions *webpush.Options) *WebPushSink {
	return &WebPushSink{
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Handle reacts to reservation expiries only.
func (s *WebPushSink) Handle(ctx context.Context, event model.SlotEvent) error {
	if event.Kind != model.EventReservationExpired || event.UserID == nil {
		return nil
	}
	userID := *event.UserID

	var subscriptions []model.PushSubscription
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&subscriptions).Error; err != nil {
		return fmt.Errorf("failed to fetch subscriptions for user %q: %w", userID, err)
	}
	if len(subscriptions) == 0 {
		return nil
	}

	log.Printf("Sending %d notifications for slot %d", len(subscriptions), event.SlotID)
	message := fmt.Sprintf("Reservation for slot %d has expired", event.SlotID)
	for _, sub := range subscriptions {
		s.sendNotification(ctx, sub, []byte(message))
	}
	return nil
}

func (s *WebPushSink) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := s.sender.Send(payload, wpSub, s.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := s.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
