package sectorreport

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"sector-insights/internal/common/errors"
	"sector-insights/internal/common/logger"
	"sector-insights/internal/common/metrics"
	"sector-insights/internal/common/observability"
	"sector-insights/internal/pipeline/records"
	"sector-insights/internal/pipeline/sampler"
)

// Pipeline stages, used as span names and metric labels.
const (
	StageFetchSource      = "fetch_source"
	StageStreamAndSample  = "stream_and_sample"
	StageRequestNarrative = "request_narrative"
	StageAssembleReport   = "assemble_report"
)

type ServiceDependencies struct {
	Fetcher   SourceFetcher
	Generator NarrativeGenerator
	Logger    logger.Logger
	Obs       *observability.Observability
}

// Service runs one query through fetch, sample, narrate and assemble. It keeps
// no state between calls and performs no retries.
type Service struct {
	config    *Config
	fetcher   SourceFetcher
	narrative *NarrativeRequestor
	logger    logger.Logger
	obs       *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	obs := deps.Obs
	if obs == nil {
		obs = observability.NewNoop()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		config:    config,
		fetcher:   deps.Fetcher,
		narrative: NewNarrativeRequestor(deps.Generator, config.ModelID, config.MaxTokens),
		logger:    log.With(map[string]interface{}{"taskType": TaskType}),
		obs:       obs,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	// Missing source location fails before any collaborator is touched.
	if err := s.config.Source.Validate(); err != nil {
		return nil, err
	}

	q := input.Query()
	s.logger.Info("Executing sector report", map[string]interface{}{
		"sector": q.Sector,
		"state":  q.State,
	})

	res, err := s.sample(ctx, q)
	if err != nil {
		return nil, err
	}

	narrative, generated, err := s.requestNarrative(ctx, res.Items, q)
	if err != nil {
		return nil, err
	}

	report, err := s.assemble(ctx, q, narrative, res.Items)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Sector report assembled", map[string]interface{}{
		"sector":      q.Sector,
		"state":       q.State,
		"rowsScanned": res.RowsScanned,
		"sampleSize":  len(res.Items),
		"generated":   generated,
	})

	return &Output{
		Report:      report,
		SampleSize:  len(res.Items),
		RowsScanned: res.RowsScanned,
		Generated:   generated,
	}, nil
}

// sample covers FETCH_SOURCE and STREAM_AND_SAMPLE; the body stays open only
// for the duration of the scan.
func (s *Service) sample(ctx context.Context, q sampler.Query) (sampler.Result, error) {
	bucket, key := s.config.Source.Bucket, s.config.Source.Key

	// An unsupported encoding fails before any request reaches storage.
	enc, err := records.LookupEncoding(s.config.Source.Encoding)
	if err != nil {
		return sampler.Result{}, errors.NewSourceDecodeError(err)
	}

	fetchCtx, span := s.obs.StartSpan(ctx, StageFetchSource,
		attribute.String("bucket", bucket), attribute.String("key", key))
	start := time.Now()
	body, err := s.fetcher.Fetch(fetchCtx, bucket, key)
	metrics.StageDuration.WithLabelValues(StageFetchSource).Observe(time.Since(start).Seconds())
	span.End()
	if err != nil {
		return sampler.Result{}, errors.NewSourceFetchError(bucket, key, err)
	}
	defer body.Close()

	_, span = s.obs.StartSpan(ctx, StageStreamAndSample)
	defer span.End()
	start = time.Now()
	res, err := sampler.Sample(records.NewReader(body, enc), q)
	metrics.StageDuration.WithLabelValues(StageStreamAndSample).Observe(time.Since(start).Seconds())
	if err != nil {
		return sampler.Result{}, errors.NewSourceDecodeError(err)
	}

	metrics.RowsScanned.Observe(float64(res.RowsScanned))
	metrics.SampleSize.Observe(float64(len(res.Items)))
	span.SetAttributes(
		attribute.Int("rowsScanned", res.RowsScanned),
		attribute.Int("sampleSize", len(res.Items)),
	)
	return res, nil
}

func (s *Service) requestNarrative(ctx context.Context, items []sampler.SampleItem, q sampler.Query) (string, bool, error) {
	ctx, span := s.obs.StartSpan(ctx, StageRequestNarrative)
	defer span.End()

	start := time.Now()
	text, generated, err := s.narrative.Request(ctx, items, q)
	metrics.StageDuration.WithLabelValues(StageRequestNarrative).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", generated, errors.NewGenerationError(s.config.ModelID, err)
	}

	if generated {
		metrics.GenerationCalls.WithLabelValues("invoked").Inc()
	} else {
		metrics.GenerationCalls.WithLabelValues("skipped").Inc()
	}
	return text, generated, nil
}

func (s *Service) assemble(ctx context.Context, q sampler.Query, narrative string, items []sampler.SampleItem) (string, error) {
	_, span := s.obs.StartSpan(ctx, StageAssembleReport)
	defer span.End()

	report, err := Assemble(q, narrative, items, s.config.Attribution)
	if err != nil {
		return "", errors.NewReportAssemblyError(err)
	}
	return report, nil
}
