package service

import (
	"context"
	"log"
	"time"

	"brandlink/internal/domain"
	"brandlink/internal/models"
	"brandlink/internal/repository"
)

// SubscriptionEvent is the part of a billing webhook that touches local state.
type SubscriptionEvent struct {
	SubscriptionCode string
	PlanCode         string
	CustomerEmail    string
	CustomerCode     string
	Status           string
	Paid             bool
	NextPaymentDate  *time.Time
}

// SubscriptionService mirrors subscription status from billing webhooks.
type SubscriptionService struct {
	store *repository.Store
}

func NewSubscriptionService(store *repository.Store) *SubscriptionService {
	return &SubscriptionService{store: store}
}

// Apply updates the local subscription row for one billing event. Events for
// subscriptions never seen before are only acted on when they create one.
func (s *SubscriptionService) Apply(ctx context.Context, event string, ev SubscriptionEvent) error {
	if ev.SubscriptionCode == "" {
		log.Printf("[Subscription] %s without subscription code, ignoring", event)
		return nil
	}
	store := s.store.WithContext(ctx)
	sub, err := store.Subscriptions.GetByCode(ev.SubscriptionCode)
	if notFound(err) {
		if event != "subscription.create" {
			log.Printf("[Subscription] %s for unknown %s, ignoring", event, ev.SubscriptionCode)
			return nil
		}
		sub = &models.Subscription{SubscriptionCode: ev.SubscriptionCode}
	} else if err != nil {
		return err
	}

	switch event {
	case "subscription.create":
		sub.Status = domain.SubscriptionActive
		if ev.Status != "" {
			sub.Status = ev.Status
		}
	case "subscription.disable":
		sub.Status = domain.SubscriptionCancelled
	case "subscription.not_renew":
		sub.Status = domain.SubscriptionNonRenewing
	case "invoice.payment_failed":
		sub.Status = domain.SubscriptionPaymentIssue
	case "invoice.update":
		if ev.Paid {
			sub.Status = domain.SubscriptionActive
		} else if ev.Status != "" {
			sub.Status = ev.Status
		}
	default:
		return nil
	}
	if ev.PlanCode != "" {
		sub.PlanCode = ev.PlanCode
	}
	if ev.CustomerCode != "" {
		sub.CustomerCode = ev.CustomerCode
	}
	if ev.NextPaymentDate != nil {
		sub.NextPaymentDate = ev.NextPaymentDate
	}
	if ev.CustomerEmail != "" {
		sub.CustomerEmail = ev.CustomerEmail
		if sub.UserID == 0 {
			if u, err := store.Users.GetByEmail(ev.CustomerEmail); err == nil {
				sub.UserID = u.ID
			}
		}
	}
	if err := store.Subscriptions.Save(sub); err != nil {
		return err
	}
	log.Printf("[Subscription] %s -> %s (%s)", sub.SubscriptionCode, sub.Status, event)
	return nil
}
