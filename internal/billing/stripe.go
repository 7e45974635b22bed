// Package billing upgrades user tiers through Stripe subscriptions.
package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"

	"server/internal/domain"
	"server/internal/ratelimit"
)

// TierStore records the tier a user is entitled to.
type TierStore interface {
	SetUserTier(ctx context.Context, userID, tier string) error
}

// Options configures the billing service. Prices maps tier names to Stripe
// price IDs.
type Options struct {
	APIKey        string
	WebhookSecret string
	Prices        map[string]string
	Tiers         TierStore
	Logger        zerolog.Logger
}

// Service creates subscriptions on upgrade and keeps tiers in sync with
// subscription lifecycle webhooks.
type Service struct {
	apiKey        string
	webhookSecret string
	tierToPrice   map[string]string
	priceToTier   map[string]string
	tiers         TierStore
	logger        zerolog.Logger
}

func NewService(opts Options) *Service {
	if opts.APIKey != "" {
		stripe.Key = opts.APIKey
	}
	priceToTier := make(map[string]string, len(opts.Prices))
	for tier, priceID := range opts.Prices {
		if priceID != "" {
			priceToTier[priceID] = tier
		}
	}
	return &Service{
		apiKey:        opts.APIKey,
		webhookSecret: opts.WebhookSecret,
		tierToPrice:   opts.Prices,
		priceToTier:   priceToTier,
		tiers:         opts.Tiers,
		logger:        opts.Logger,
	}
}

// Upgrade subscribes the user to the tier's price and records the new tier.
// Without a Stripe key the tier is recorded directly, which keeps local
// development working without billing credentials.
func (s *Service) Upgrade(ctx context.Context, userID, email, tier string) error {
	priceID, ok := s.tierToPrice[tier]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTier, tier)
	}

	if s.apiKey == "" {
		s.logger.Warn().Str("user_id", userID).Str("tier", tier).
			Msg("stripe key not configured, recording tier directly")
		return s.tiers.SetUserTier(ctx, userID, tier)
	}

	cust, err := customer.New(&stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"user_id": userID,
		},
	})
	if err != nil {
		return fmt.Errorf("billing: create customer: %w", err)
	}

	_, err = subscription.New(&stripe.SubscriptionParams{
		Customer: stripe.String(cust.ID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
		Metadata: map[string]string{
			"user_id": userID,
		},
	})
	if err != nil {
		return fmt.Errorf("billing: create subscription: %w", err)
	}

	return s.tiers.SetUserTier(ctx, userID, tier)
}

// HandleWebhook verifies the event signature and applies subscription
// lifecycle changes to the user's tier.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("%w: webhook signature: %v", domain.ErrUnauthorized, err)
	}
	return s.applyEvent(ctx, event)
}

func (s *Service) applyEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionCreated, stripe.EventTypeCustomerSubscriptionUpdated:
		sub, userID, err := s.decodeSubscription(event)
		if err != nil {
			return err
		}
		if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
			s.logger.Info().Str("user_id", userID).Str("status", string(sub.Status)).
				Msg("ignoring subscription event in inactive status")
			return nil
		}
		tier, ok := s.subscriptionTier(sub)
		if !ok {
			s.logger.Warn().Str("user_id", userID).Msg("subscription price not mapped to a tier")
			return nil
		}
		return s.tiers.SetUserTier(ctx, userID, tier)

	case stripe.EventTypeCustomerSubscriptionDeleted:
		_, userID, err := s.decodeSubscription(event)
		if err != nil {
			return err
		}
		return s.tiers.SetUserTier(ctx, userID, ratelimit.TierFree)

	default:
		return nil
	}
}

func (s *Service) decodeSubscription(event stripe.Event) (*stripe.Subscription, string, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, "", fmt.Errorf("billing: decode subscription event: %w", err)
	}
	userID := sub.Metadata["user_id"]
	if userID == "" {
		return nil, "", fmt.Errorf("billing: subscription event without user_id metadata")
	}
	return &sub, userID, nil
}

func (s *Service) subscriptionTier(sub *stripe.Subscription) (string, bool) {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return "", false
	}
	tier, ok := s.priceToTier[sub.Items.Data[0].Price.ID]
	return tier, ok
}
