package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"go-ecommerce/services"
	"go-ecommerce/utils"
)

type Subscriber interface {
	Subscribe(ctx context.Context, in services.SubscribeInput) error
}

type SubscriptionController struct {
	subs Subscriber
	log  *slog.Logger
}

func NewSubscriptionController(subs Subscriber, log *slog.Logger) *SubscriptionController {
	return &SubscriptionController{subs: subs, log: log}
}

// Subscribe signs an email up for the newsletter
func (sc *SubscriptionController) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in services.SubscribeInput
	if err := utils.DecodeAndValidate(r, &in); err != nil {
		writeError(w, r, sc.log, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if err := sc.subs.Subscribe(ctx, in); err != nil {
		writeError(w, r, sc.log, err)
		return
	}

	utils.Message(w, http.StatusOK, "Subscribed successfully. A confirmation email is on its way.")
}
