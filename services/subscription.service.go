package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go-ecommerce/store"
	"go-ecommerce/utils"
)

type SubscriptionStore interface {
	Create(ctx context.Context, email string) error
}

type SubscriptionMailer interface {
	SendSubscriptionEmail(toEmail string) error
}

type SubscribeInput struct {
	Email string `json:"email" validate:"required,email"`
}

type SubscriptionService struct {
	subs   SubscriptionStore
	mailer SubscriptionMailer
	log    *slog.Logger
	async  func(func())
}

func NewSubscriptionService(subs SubscriptionStore, mailer SubscriptionMailer, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{subs: subs, mailer: mailer, log: log, async: goAsync}
}

// Subscribe adds the email to the newsletter and sends a confirmation.
func (s *SubscriptionService) Subscribe(ctx context.Context, in SubscribeInput) error {
	const op = "services.SubscriptionService.Subscribe"
	log := s.log.With(slog.String("op", op))

	in.Email = normalizeEmail(in.Email)
	if err := utils.Validate(&in); err != nil {
		return err
	}

	if err := s.subs.Create(ctx, in.Email); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrAlreadySubscribed
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.async(func() {
		if err := s.mailer.SendSubscriptionEmail(in.Email); err != nil {
			log.Error("failed to send subscription email", slog.Any("err", err))
		}
	})
	return nil
}
