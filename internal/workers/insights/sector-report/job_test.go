// internal/workers/insights/sector-report/job_test.go
package sectorreport

import (
	"context"
	"errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"

	stderrors "sector-insights/internal/common/errors"
	"sector-insights/internal/common/logger"
)

// ==========================
// Mock Gateway / Job Client
// ==========================

// MockGateway records the job commands the handler sends. Gateway methods the
// handler never calls are left to the embedded nil interface.
type MockGateway struct {
	pb.GatewayClient
	mock.Mock
}

func (m *MockGateway) CompleteJob(ctx context.Context, in *pb.CompleteJobRequest, opts ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	args := m.Called(in)
	resp, _ := args.Get(0).(*pb.CompleteJobResponse)
	return resp, args.Error(1)
}

func (m *MockGateway) FailJob(ctx context.Context, in *pb.FailJobRequest, opts ...grpc.CallOption) (*pb.FailJobResponse, error) {
	args := m.Called(in)
	resp, _ := args.Get(0).(*pb.FailJobResponse)
	return resp, args.Error(1)
}

func neverRetry(context.Context, error) bool { return false }

type fakeJobClient struct {
	gateway *MockGateway
}

func (c *fakeJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, neverRetry)
}

func (c *fakeJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, neverRetry)
}

func (c *fakeJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, neverRetry)
}

func sentFailRequest(t *testing.T, gw *MockGateway) *pb.FailJobRequest {
	t.Helper()
	for _, call := range gw.Calls {
		if call.Method == "FailJob" {
			return call.Arguments.Get(0).(*pb.FailJobRequest)
		}
	}
	require.FailNow(t, "no FailJob command sent")
	return nil
}

func createJob(variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       42,
		Type:      TaskType,
		Variables: variables,
	}}
}

func TestInputFromJob(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		expected  *Input
	}{
		{name: "no variables", variables: "", expected: &Input{Sector: DefaultSector, State: DefaultState}},
		{name: "empty object", variables: `{}`, expected: &Input{Sector: DefaultSector, State: DefaultState}},
		{name: "both set", variables: `{"sector":"Mineria","state":"Sonora"}`, expected: &Input{Sector: "Mineria", State: "Sonora"}},
		{name: "estado alias", variables: `{"estado":"Jalisco"}`, expected: &Input{Sector: DefaultSector, State: "Jalisco"}},
		{name: "explicit empty", variables: `{"sector":""}`, expected: &Input{Sector: "", State: DefaultState}},
		{name: "unrelated variables ignored", variables: `{"orderId":7}`, expected: &Input{Sector: DefaultSector, State: DefaultState}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := InputFromJob(createJob(tt.variables))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, input)
		})
	}
}

func TestInputFromJob_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		variables string
	}{
		{name: "sector not a string", variables: `{"sector":12}`},
		{name: "state not a string", variables: `{"state":["a"]}`},
		{name: "not json", variables: `{sector`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InputFromJob(createJob(tt.variables))
			require.Error(t, err)
			assert.Equal(t, stderrors.ErrCodeInvalidInput, stderrors.Normalize(err).Code)
		})
	}
}

func TestJobHandler_Process(t *testing.T) {
	svc := new(MockExecutor)
	svc.On("Execute", mock.Anything, &Input{Sector: "Salud", State: DefaultState}).
		Return(&Output{Report: "r", SampleSize: 2}, nil)

	h := NewJobHandler(svc, logger.NewTestLogger(t), nil)
	out, err := h.process(context.Background(), createJob(`{"sector":"Salud"}`))

	require.NoError(t, err)
	assert.Equal(t, 2, out.SampleSize)
	svc.AssertExpectations(t)
}

func TestJobHandler_Process_InvalidInputSkipsService(t *testing.T) {
	svc := new(MockExecutor)

	h := NewJobHandler(svc, logger.NewTestLogger(t), nil)
	_, err := h.process(context.Background(), createJob(`{"state":false}`))

	require.Error(t, err)
	svc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestJobHandler_Process_ServiceError(t *testing.T) {
	svc := new(MockExecutor)
	svc.On("Execute", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	h := NewJobHandler(svc, logger.NewTestLogger(t), nil)
	_, err := h.process(context.Background(), createJob(`{}`))

	assert.EqualError(t, err, "throttled")
}

// ==========================
// Handle: complete / fail
// ==========================

func TestJobHandler_Handle_CompletesWithOutput(t *testing.T) {
	svc := new(MockExecutor)
	svc.On("Execute", mock.Anything, &Input{Sector: "Mineria", State: "Sonora"}).
		Return(&Output{Report: "REPORT", SampleSize: 4, RowsScanned: 120, Generated: true}, nil)
	gw := new(MockGateway)
	gw.On("CompleteJob", mock.Anything).Return(&pb.CompleteJobResponse{}, nil)

	NewJobHandler(svc, logger.NewTestLogger(t), nil).
		Handle(&fakeJobClient{gateway: gw}, createJob(`{"sector":"Mineria","state":"Sonora"}`))

	gw.AssertNumberOfCalls(t, "CompleteJob", 1)
	gw.AssertNotCalled(t, "FailJob", mock.Anything)

	req := gw.Calls[0].Arguments.Get(0).(*pb.CompleteJobRequest)
	assert.Equal(t, int64(42), req.JobKey)
	assert.JSONEq(t, `{"report":"REPORT","sampleSize":4,"rowsScanned":120,"generated":true}`, req.Variables)
}

func TestJobHandler_Handle_FailsWithoutRetries(t *testing.T) {
	tests := []struct {
		name        string
		variables   string
		serviceErr  error
		callService bool
		assertMsg   func(t *testing.T, msg string)
	}{
		{
			name:        "pipeline failure carries the JSON payload",
			variables:   `{}`,
			serviceErr:  stderrors.NewSourceFetchError("inegi-raw", "denue.csv", errors.New("NoSuchKey")),
			callService: true,
			assertMsg: func(t *testing.T, msg string) {
				assert.JSONEq(t, `{"error":"Pipeline Failure","details":"NoSuchKey"}`, msg)
			},
		},
		{
			name:        "configuration failure carries the plain message",
			variables:   `{}`,
			serviceErr:  stderrors.NewConfigurationError([]string{"BUCKET_NAME"}),
			callService: true,
			assertMsg: func(t *testing.T, msg string) {
				assert.Equal(t, "Error: environment variables BUCKET_NAME not configured.", msg)
			},
		},
		{
			name:        "invalid variables never reach the service",
			variables:   `{"sector":7}`,
			callService: false,
			assertMsg: func(t *testing.T, msg string) {
				assert.Contains(t, msg, `"error":"Pipeline Failure"`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockExecutor)
			if tt.callService {
				svc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}
			gw := new(MockGateway)
			gw.On("FailJob", mock.Anything).Return(&pb.FailJobResponse{}, nil)

			NewJobHandler(svc, logger.NewTestLogger(t), nil).
				Handle(&fakeJobClient{gateway: gw}, createJob(tt.variables))

			gw.AssertNotCalled(t, "CompleteJob", mock.Anything)
			req := sentFailRequest(t, gw)
			assert.Equal(t, int64(42), req.JobKey)
			assert.Equal(t, int32(0), req.Retries)
			tt.assertMsg(t, req.ErrorMessage)

			if !tt.callService {
				svc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestJobHandler_Handle_LogsFailSendError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := new(MockExecutor)
	svc.On("Execute", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	gw := new(MockGateway)
	gw.On("FailJob", mock.Anything).Return(nil, errors.New("gateway unavailable"))

	NewJobHandler(svc, logger.NewZapAdapter(zap.New(core)), nil).
		Handle(&fakeJobClient{gateway: gw}, createJob(`{}`))

	entries := logs.FilterMessage("Failed to send fail job command").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "gateway unavailable", entries[0].ContextMap()["error"])
}

func TestJobHandler_Handle_LogsCompleteSendError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := new(MockExecutor)
	svc.On("Execute", mock.Anything, mock.Anything).Return(&Output{Report: "r"}, nil)
	gw := new(MockGateway)
	gw.On("CompleteJob", mock.Anything).Return(nil, errors.New("gateway unavailable"))

	NewJobHandler(svc, logger.NewZapAdapter(zap.New(core)), nil).
		Handle(&fakeJobClient{gateway: gw}, createJob(`{}`))

	assert.Equal(t, 1, logs.FilterMessage("Failed to send complete job command").Len())
}

func TestNewJobHandler_NilLogger(t *testing.T) {
	svc := new(MockExecutor)
	svc.On("Execute", mock.Anything, mock.Anything).Return(&Output{Report: "r"}, nil)

	var h *JobHandler
	require.NotPanics(t, func() { h = NewJobHandler(svc, nil, nil) })

	out, err := h.process(context.Background(), createJob(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "r", out.Report)
}

