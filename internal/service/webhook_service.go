package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"brandlink/internal/apperror"
	"brandlink/internal/domain"
	"brandlink/internal/models"
	"brandlink/internal/repository"
	"brandlink/pkg/payment"

	"gorm.io/datatypes"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw request body.
const SignatureHeader = "x-paystack-signature"

// Event is the outer shape of every processor callback.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type chargeData struct {
	ID              json.Number `json:"id"`
	Reference       string      `json:"reference"`
	Status          string      `json:"status"`
	Amount          int64       `json:"amount"`
	GatewayResponse string      `json:"gateway_response"`
}

type transferData struct {
	ID           json.Number `json:"id"`
	Reference    string      `json:"reference"`
	TransferCode string      `json:"transfer_code"`
	Status       string      `json:"status"`
	Reason       string      `json:"reason"`
}

type subscriptionData struct {
	ID               json.Number `json:"id"`
	SubscriptionCode string      `json:"subscription_code"`
	Status           string      `json:"status"`
	Paid             bool        `json:"paid"`
	NextPaymentDate  *time.Time  `json:"next_payment_date"`
	Plan             struct {
		PlanCode string `json:"plan_code"`
	} `json:"plan"`
	Customer struct {
		Email        string `json:"email"`
		CustomerCode string `json:"customer_code"`
	} `json:"customer"`
	// invoice events nest the subscription
	Subscription struct {
		SubscriptionCode string     `json:"subscription_code"`
		Status           string     `json:"status"`
		NextPaymentDate  *time.Time `json:"next_payment_date"`
	} `json:"subscription"`
}

// WebhookService authenticates processor callbacks, logs each one once and
// routes it to the service that owns the affected records.
type WebhookService struct {
	secret        []byte
	store         *repository.Store
	settlement    *SettlementService
	subscriptions *SubscriptionService
}

func NewWebhookService(secret string, store *repository.Store, settlement *SettlementService, subscriptions *SubscriptionService) *WebhookService {
	return &WebhookService{secret: []byte(secret), store: store, settlement: settlement, subscriptions: subscriptions}
}

func (s *WebhookService) VerifySignature(body []byte, signature string) bool {
	if len(s.secret) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, s.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}

// Process verifies and handles one callback. Only a bad signature, a
// malformed body or a failure to log the event is returned; errors while
// handling a logged event are recorded on it, and the event is dispatched
// again on redelivery or by ReplayFailed.
func (s *WebhookService) Process(ctx context.Context, body []byte, signature string) error {
	if !s.VerifySignature(body, signature) {
		log.Printf("[Webhook] signature mismatch, %d bytes dropped", len(body))
		return apperror.Validation("invalid signature")
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil || ev.Event == "" {
		return apperror.Validation("malformed event")
	}

	record := &models.WebhookEvent{
		Provider:  domain.ProviderPaystack,
		EventID:   eventID(ev, body),
		EventType: ev.Event,
		Payload:   datatypes.JSON(body),
		Attempts:  1,
	}
	store := s.store.WithContext(ctx)
	created, err := store.WebhookEvents.Record(record)
	if err != nil {
		return apperror.Internal("could not record event", err)
	}
	if created {
		s.handle(ctx, ev, record)
		return nil
	}

	prev, err := store.WebhookEvents.GetByEventID(record.Provider, record.EventID)
	if err != nil {
		return apperror.Internal("could not load event", err)
	}
	if prev.ProcessingError == "" {
		log.Printf("[Webhook] %s %s already received", ev.Event, record.EventID)
		return nil
	}
	if _, err := s.retry(ctx, prev, ev); err != nil {
		return apperror.Internal("could not retry event", err)
	}
	return nil
}

// ReplayFailed dispatches again up to limit logged events whose last
// dispatch failed, skipping those already tried maxAttempts times. It
// returns how many went through.
func (s *WebhookService) ReplayFailed(ctx context.Context, maxAttempts, limit int) (int, error) {
	events, err := s.store.WithContext(ctx).WebhookEvents.ListFailed(maxAttempts, limit)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for i := range events {
		if ctx.Err() != nil {
			return recovered, ctx.Err()
		}
		e := &events[i]
		var ev Event
		if err := json.Unmarshal(e.Payload, &ev); err != nil {
			log.Printf("[Webhook] replay %d: %v", e.ID, err)
			continue
		}
		ok, err := s.retry(ctx, e, ev)
		if err != nil {
			log.Printf("[Webhook] replay %d: %v", e.ID, err)
			continue
		}
		if ok {
			recovered++
		}
	}
	return recovered, nil
}

// retry claims a failed event and dispatches it again. It reports whether
// this dispatch succeeded; losing the claim to another caller is not an
// error.
func (s *WebhookService) retry(ctx context.Context, e *models.WebhookEvent, ev Event) (bool, error) {
	claimed, err := s.store.WithContext(ctx).WebhookEvents.ClaimRetry(e.ID, e.Attempts)
	if err != nil {
		return false, err
	}
	if !claimed {
		return false, nil
	}
	e.Attempts++
	log.Printf("[Webhook] %s %s attempt %d", ev.Event, e.EventID, e.Attempts)
	return s.handle(ctx, ev, e) == nil, nil
}

func (s *WebhookService) handle(ctx context.Context, ev Event, e *models.WebhookEvent) error {
	dispatchErr := s.dispatch(ctx, ev)
	if dispatchErr != nil {
		log.Printf("[Webhook] %s %s: %v", ev.Event, e.EventID, dispatchErr)
	}
	if err := s.store.WithContext(ctx).WebhookEvents.MarkProcessed(e.ID, dispatchErr); err != nil {
		log.Printf("[Webhook] mark %d processed: %v", e.ID, err)
	}
	return dispatchErr
}

func (s *WebhookService) dispatch(ctx context.Context, ev Event) error {
	switch ev.Event {
	case "charge.success", "charge.failed":
		var d chargeData
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return fmt.Errorf("decode charge: %w", err)
		}
		return s.settlement.HandlePaymentWebhook(ctx, ChargeEvent{
			Reference:            d.Reference,
			Success:              ev.Event == "charge.success" && d.Status == payment.ChargeSuccess,
			GatewayTransactionID: d.ID.String(),
			Amount:               payment.FromMinorUnits(d.Amount),
		})

	case "transfer.success", "transfer.failed", "transfer.reversed":
		var d transferData
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return fmt.Errorf("decode transfer: %w", err)
		}
		return s.settlement.HandleTransferEvent(ctx, TransferEvent{
			Reference:    d.Reference,
			TransferCode: d.TransferCode,
			Success:      ev.Event == "transfer.success",
			Reason:       d.Reason,
		})

	case "subscription.create", "subscription.disable", "subscription.not_renew",
		"invoice.payment_failed", "invoice.update":
		var d subscriptionData
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		se := SubscriptionEvent{
			SubscriptionCode: d.SubscriptionCode,
			PlanCode:         d.Plan.PlanCode,
			CustomerEmail:    d.Customer.Email,
			CustomerCode:     d.Customer.CustomerCode,
			Status:           d.Status,
			Paid:             d.Paid,
			NextPaymentDate:  d.NextPaymentDate,
		}
		if strings.HasPrefix(ev.Event, "invoice.") {
			se.SubscriptionCode = d.Subscription.SubscriptionCode
			se.Status = d.Subscription.Status
			se.NextPaymentDate = d.Subscription.NextPaymentDate
		}
		return s.subscriptions.Apply(ctx, ev.Event, se)
	}
	log.Printf("[Webhook] unhandled event %s", ev.Event)
	return nil
}

// eventID identifies a delivery for deduplication: the event name plus the
// processor's object id, or a body digest when the object has none.
func eventID(ev Event, body []byte) string {
	var obj struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(ev.Data, &obj); err == nil && obj.ID != "" {
		return ev.Event + ":" + obj.ID.String()
	}
	sum := sha256.Sum256(body)
	return ev.Event + ":" + hex.EncodeToString(sum[:])
}
