// internal/common/camunda/worker.go
package camunda

import (
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"sector-insights/internal/common/logger"
)

// JobHandler is implemented by the transport adapters of each pipeline.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// StartWorker opens a job worker for taskType on c.
func StartWorker(c *Client, taskType string, maxJobsActive int, handler JobHandler, log logger.Logger) *Worker {
	jobWorker := c.Zeebe().NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobsActive,
	})

	return &Worker{worker: jobWorker, logger: log, taskType: taskType}
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
