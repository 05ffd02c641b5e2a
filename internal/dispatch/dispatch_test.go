package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"quotes/internal/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type FakeEnqueuer struct {
	Tasks   []*asynq.Task
	Options [][]asynq.Option
	Err     error
}

func (f *FakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.Tasks = append(f.Tasks, task)
	f.Options = append(f.Options, opts)
	if f.Err != nil {
		return nil, f.Err
	}
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type(), Payload: task.Payload()}, nil
}

type MockDistributor struct {
	mock.Mock
}

func (m *MockDistributor) DistributeRequest(ctx context.Context, requestId string) (int, error) {
	args := m.Called(ctx, requestId)
	return args.Int(0), args.Error(1)
}

// --- Tests ---

func TestAsynqDispatch(t *testing.T) {
	client := &FakeEnqueuer{}
	d := NewAsynq(client)

	expiresAt := time.Date(2024, 5, 1, 12, 45, 0, 0, time.UTC)
	err := d.Dispatch(context.Background(), models.QuoteRequest{Id: "req-1", ExpiresAt: expiresAt})
	require.NoError(t, err)

	require.Len(t, client.Tasks, 1)
	task := client.Tasks[0]
	assert.Equal(t, TypeDistributeRequest, task.Type())

	var payload DistributePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "req-1", payload.RequestId)

	opts := make(map[asynq.OptionType]any)
	for _, opt := range client.Options[0] {
		opts[opt.Type()] = opt.Value()
	}
	assert.Equal(t, "req-1", opts[asynq.TaskIDOpt])
	assert.Equal(t, Queue, opts[asynq.QueueOpt])
	assert.Equal(t, DefaultMaxRetry, opts[asynq.MaxRetryOpt])
	assert.Equal(t, expiresAt, opts[asynq.DeadlineOpt])
}

func TestAsynqDispatchDuplicate(t *testing.T) {
	d := NewAsynq(&FakeEnqueuer{Err: asynq.ErrTaskIDConflict})

	err := d.Dispatch(context.Background(), models.QuoteRequest{Id: "req-1", ExpiresAt: time.Now().Add(time.Hour)})
	assert.NoError(t, err)
}

func TestAsynqDispatchFailure(t *testing.T) {
	d := NewAsynq(&FakeEnqueuer{Err: errors.New("dial tcp: connection refused")})

	err := d.Dispatch(context.Background(), models.QuoteRequest{Id: "req-1", ExpiresAt: time.Now().Add(time.Hour)})
	assert.Error(t, err)
}

func TestHandleDistributeRequest(t *testing.T) {
	task, err := NewTask("req-1")
	require.NoError(t, err)

	tests := []struct {
		name      string
		created   int
		err       error
		wantErr   bool
		skipRetry bool
	}{
		{name: "distributed", created: 3},
		{name: "redelivered", created: 0},
		{name: "request gone", err: models.ErrNoRequest, wantErr: true, skipRetry: true},
		{name: "storage down", err: models.ErrUnavailable, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			distributor := new(MockDistributor)
			distributor.On("DistributeRequest", mock.Anything, "req-1").Return(tt.created, tt.err)

			h := NewHandler(distributor, zap.NewNop())
			err := h.HandleDistributeRequest(context.Background(), task)

			if !tt.wantErr {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
			}
			distributor.AssertExpectations(t)
		})
	}
}

func TestHandleDistributeRequestBadPayload(t *testing.T) {
	distributor := new(MockDistributor)
	h := NewHandler(distributor, zap.NewNop())

	for _, payload := range []string{"{not json", `{"request_id": ""}`} {
		err := h.HandleDistributeRequest(context.Background(), asynq.NewTask(TypeDistributeRequest, []byte(payload)))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	}
	distributor.AssertNotCalled(t, "DistributeRequest", mock.Anything, mock.Anything)
}
