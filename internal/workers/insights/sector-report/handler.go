package sectorreport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"sector-insights/internal/common/errors"
	"sector-insights/internal/common/logger"
	"sector-insights/internal/common/metrics"
	"sector-insights/internal/common/observability"
)

const transportHTTP = "http"

// Executor is implemented by *Service.
type Executor interface {
	Execute(ctx context.Context, input *Input) (*Output, error)
}

// Handler exposes the pipeline as GET /insights.
type Handler struct {
	service Executor
	logger  logger.Logger
	obs     *observability.Observability
}

func NewHandler(service Executor, log logger.Logger, obs *observability.Observability) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Handler{
		service: service,
		logger:  log.With(map[string]interface{}{"transport": transportHTTP}),
		obs:     obs,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	switch r.Method {
	case http.MethodGet:
	case http.MethodOptions:
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		w.WriteHeader(http.StatusNoContent)
		return
	default:
		w.Header().Set("Allow", "GET, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)

	input := InputFromValues(r.URL.Query())
	log := h.logger.With(map[string]interface{}{"requestId": requestID})
	log.Info("processing request", map[string]interface{}{
		"sector": input.Sector,
		"state":  input.State,
	})

	start := time.Now()
	output, err := h.service.Execute(r.Context(), &input)
	if err != nil {
		h.writeFailure(r.Context(), w, log, err, time.Since(start))
		return
	}

	metrics.InsightsRequests.WithLabelValues(transportHTTP, "success").Inc()
	h.obs.RecordRequest(r.Context(), transportHTTP, "success")
	h.obs.RecordDuration(r.Context(), time.Since(start), "success")

	log.Info("request completed", map[string]interface{}{
		"rowsScanned": output.RowsScanned,
		"sampleSize":  output.SampleSize,
		"durationMs":  time.Since(start).Milliseconds(),
	})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(output.Report))
}

// writeFailure maps every error to a 500. Configuration errors get a plain
// message; everything else gets the structured payload.
func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error, elapsed time.Duration) {
	stdErr := errors.Normalize(err)

	metrics.InsightsRequests.WithLabelValues(transportHTTP, "failure").Inc()
	metrics.InsightsFailures.WithLabelValues(string(stdErr.Code)).Inc()
	h.obs.RecordRequest(ctx, transportHTTP, "failure")
	h.obs.RecordDuration(ctx, elapsed, "failure")

	log.Error("request failed", map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": errors.GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
	})

	if stdErr.Code == errors.ErrCodeConfiguration {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(stdErr.Message))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(errors.ToFailurePayload(stdErr))
}
