package push

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"possync/internal/domain/push"
)

type Handler struct {
	service    push.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service push.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.pushOp(), h.processPush)
}

func (h *Handler) processPush(ctx context.Context, input *pushInput) (*pushOutput, error) {
	response, err := h.service.ProcessBatch(ctx, input.Collection, input.Body)
	if err != nil {
		if isClientError(err) {
			return nil, huma.Error400BadRequest(err.Error())
		}

		h.log.Error("batch processing failed",
			"collection", input.Collection,
			"request_id", input.Body.RequestID,
			"error", err,
		)
		return nil, huma.Error500InternalServerError("batch processing failed")
	}

	return &pushOutput{Body: *response}, nil
}

// isClientError отделяет негодный батч от сбоя на нашей стороне.
func isClientError(err error) bool {
	return errors.Is(err, push.ErrUnknownCollection) ||
		errors.Is(err, push.ErrEmptyBatch) ||
		errors.Is(err, push.ErrEmptyRequestID) ||
		errors.Is(err, push.ErrRequestIDMismatch) ||
		errors.Is(err, push.ErrMalformedOperation)
}
