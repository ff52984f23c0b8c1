package service

import (
	"context"
	"fmt"
	"log"

	"brandlink/internal/domain"
	"brandlink/internal/models"
	"brandlink/internal/ws"
)

// Notifier tells users about money that moved on their behalf. Calls happen
// after the database work has committed; failures are logged, never returned.
type Notifier interface {
	PayoutReceived(ctx context.Context, influencer *models.Influencer, t *models.Transaction)
	WalletDebited(ctx context.Context, influencer *models.Influencer, entry *models.WalletTransaction)
}

// NotificationService fans wallet events out to open WebSocket connections,
// FCM push and e-mail. Any of the three may be nil.
type NotificationService struct {
	hub  *ws.Hub
	fcm  *FCMService
	mail *MailService
}

func NewNotificationService(hub *ws.Hub, fcm *FCMService, mail *MailService) *NotificationService {
	return &NotificationService{hub: hub, fcm: fcm, mail: mail}
}

func (s *NotificationService) PayoutReceived(ctx context.Context, influencer *models.Influencer, t *models.Transaction) {
	amount := t.InfluencerAmount.StringFixed(models.MoneyPlaces)
	title := "Payment received"
	body := fmt.Sprintf("%s %s for campaign #%d has been paid out", t.Currency, amount, t.CampaignID)
	if t.PayoutChannel == domain.PayoutPlatformWallet {
		body = fmt.Sprintf("%s %s for campaign #%d is now in your wallet", t.Currency, amount, t.CampaignID)
	}
	data := map[string]interface{}{
		"reference":   t.PaymentReference,
		"campaign_id": t.CampaignID,
		"amount":      amount,
		"currency":    t.Currency,
		"channel":     t.PayoutChannel,
	}
	s.send(ctx, influencer, "PAYOUT_RECEIVED", title, body, data)
}

func (s *NotificationService) WalletDebited(ctx context.Context, influencer *models.Influencer, entry *models.WalletTransaction) {
	amount := entry.Amount.StringFixed(models.MoneyPlaces)
	title := "Withdrawal started"
	body := fmt.Sprintf("%s has left your wallet and is on its way to your bank account", amount)
	data := map[string]interface{}{
		"reference":     entry.Reference,
		"amount":        amount,
		"balance_after": entry.BalanceAfter.StringFixed(models.MoneyPlaces),
	}
	s.send(ctx, influencer, "WALLET_DEBITED", title, body, data)
}

func (s *NotificationService) send(ctx context.Context, influencer *models.Influencer, notifType, title, body string, data map[string]interface{}) {
	if influencer == nil {
		return
	}
	userID := influencer.UserID
	if s.hub != nil {
		s.hub.BroadcastToUser(userID, map[string]interface{}{
			"type":  notifType,
			"title": title,
			"body":  body,
			"data":  data,
		})
	}
	if err := s.fcm.SendToUser(ctx, influencer.User.FCMToken, notifType, title, body, data); err != nil {
		log.Printf("[Notify] push user=%d type=%s: %v", userID, notifType, err)
	}
	if err := s.mail.Send(influencer.User.Email, title, "<p>"+body+"</p>"); err != nil {
		log.Printf("[Notify] mail user=%d type=%s: %v", userID, notifType, err)
	}
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) PayoutReceived(context.Context, *models.Influencer, *models.Transaction) {}
func (NopNotifier) WalletDebited(context.Context, *models.Influencer, *models.WalletTransaction) {}
