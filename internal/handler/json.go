package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/teahouse-backend/internal/domain"
	"github.com/xenking/teahouse-backend/internal/payment"
	"github.com/xenking/teahouse-backend/pkg/httpmiddleware"
)

var errBadBody = &domain.ValidationError{Message: "invalid request body"}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errBadBody, err.Error())
	}
	return nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zctx.From(ctx).Error("Encode response", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, domain.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// writeError maps err to a status code and writes the error body. Server
// side failures are logged; their details are not sent to the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, msg := classify(err)
	lg := zctx.From(ctx)
	if status >= http.StatusInternalServerError {
		lg.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		lg.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	httpmiddleware.WriteError(w, status, msg)
}

func classify(err error) (int, string) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		processor  *payment.ProcessorError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Error()
	case errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusBadRequest, "invalid webhook signature"
	case errors.As(err, &processor):
		if processor.Declined {
			return http.StatusPaymentRequired, processor.Message
		}
		return http.StatusBadGateway, "payment processor unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
