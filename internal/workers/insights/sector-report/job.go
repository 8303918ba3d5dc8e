package sectorreport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"sector-insights/internal/common/errors"
	"sector-insights/internal/common/logger"
	"sector-insights/internal/common/metrics"
	"sector-insights/internal/common/observability"
	"sector-insights/internal/common/validation"
)

const transportZeebe = "zeebe"

const jobVariablesSchema = `{
  "type": "object",
  "properties": {
    "sector": {"type": "string"},
    "state":  {"type": "string"},
    "estado": {"type": "string"}
  }
}`

// JobHandler runs the pipeline for Zeebe jobs of type TaskType. Failed jobs
// are not retried.
type JobHandler struct {
	service Executor
	logger  logger.Logger
	obs     *observability.Observability
}

func NewJobHandler(service Executor, log logger.Logger, obs *observability.Observability) *JobHandler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &JobHandler{
		service: service,
		logger:  log.With(map[string]interface{}{"transport": transportZeebe, "taskType": TaskType}),
		obs:     obs,
	}
}

func (h *JobHandler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx := context.Background()
	start := time.Now()

	output, err := h.process(ctx, job)
	if err != nil {
		metrics.InsightsRequests.WithLabelValues(transportZeebe, "failure").Inc()
		h.obs.RecordRequest(ctx, transportZeebe, "failure")
		h.obs.RecordDuration(ctx, time.Since(start), "failure")
		h.failJob(ctx, client, job, err)
		return
	}

	metrics.InsightsRequests.WithLabelValues(transportZeebe, "success").Inc()
	h.obs.RecordRequest(ctx, transportZeebe, "success")
	h.obs.RecordDuration(ctx, time.Since(start), "success")
	h.completeJob(ctx, client, job, output)
}

func (h *JobHandler) process(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := InputFromJob(job)
	if err != nil {
		return nil, err
	}
	return h.service.Execute(ctx, input)
}

// InputFromJob reads sector/state job variables with the same defaulting
// rules as the HTTP query string.
func InputFromJob(job entities.Job) (*Input, error) {
	raw := []byte(job.Variables)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if err := validation.Check(jobVariablesSchema, raw); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	var vars struct {
		Sector *string `json:"sector"`
		State  *string `json:"state"`
		Estado *string `json:"estado"`
	}
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}

	input := &Input{Sector: DefaultSector, State: DefaultState}
	if vars.Sector != nil {
		input.Sector = *vars.Sector
	}
	switch {
	case vars.State != nil:
		input.State = *vars.State
	case vars.Estado != nil:
		input.State = *vars.Estado
	}
	return input, nil
}

func (h *JobHandler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *JobHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.InsightsFailures.WithLabelValues(string(stdErr.Code)).Inc()

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":        job.Key,
		"errorCode":     string(stdErr.Code),
		"errorCategory": errors.GetErrorCategory(stdErr.Code),
		"details":       stdErr.Details,
	})

	message := stdErr.Message
	if stdErr.Code != errors.ErrCodeConfiguration {
		if payload, mErr := json.Marshal(errors.ToFailurePayload(stdErr)); mErr == nil {
			message = string(payload)
		}
	}

	_, sendErr := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage(message).
		Send(ctx)
	if sendErr != nil {
		h.logger.Error("Failed to send fail job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
	}
}
