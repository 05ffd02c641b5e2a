// Package dispatch moves notification distribution onto an asynq queue, so
// a request saved by intake is distributed at least once even when the
// process handling intake dies right after the commit.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quotes/internal/config"
	"quotes/internal/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeDistributeRequest = "request:distribute"
	Queue                 = "distribution"
	DefaultMaxRetry       = 10
)

type DistributePayload struct {
	RequestId string `json:"request_id"`
}

func redisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

func NewClient(cfg config.RedisConfig) *asynq.Client {
	return asynq.NewClient(redisOpt(cfg))
}

type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Asynq enqueues one distribution task per request. The task id is the
// request id, so enqueueing the same request twice keeps a single task.
type Asynq struct {
	client   Enqueuer
	maxRetry int
}

func NewAsynq(client Enqueuer) *Asynq {
	return &Asynq{client: client, maxRetry: DefaultMaxRetry}
}

func NewTask(requestId string) (*asynq.Task, error) {
	payload, err := json.Marshal(DistributePayload{RequestId: requestId})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDistributeRequest, payload), nil
}

func (a *Asynq) Dispatch(ctx context.Context, request models.QuoteRequest) error {
	task, err := NewTask(request.Id)
	if err != nil {
		return fmt.Errorf("dispatch.Asynq.Dispatch: %w", err)
	}

	_, err = a.client.EnqueueContext(ctx, task,
		asynq.TaskID(request.Id),
		asynq.Queue(Queue),
		asynq.MaxRetry(a.maxRetry),
		// nothing to distribute once the request is over
		asynq.Deadline(request.ExpiresAt),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dispatch.Asynq.Dispatch: request %s: %w", request.Id, err)
	}
	return nil
}

//// Worker

type Distributor interface {
	DistributeRequest(ctx context.Context, requestId string) (int, error)
}

type Handler struct {
	distributor Distributor
	log         *zap.Logger
}

func NewHandler(distributor Distributor, log *zap.Logger) *Handler {
	return &Handler{distributor: distributor, log: log}
}

func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeDistributeRequest, h.HandleDistributeRequest)
}

func (h *Handler) HandleDistributeRequest(ctx context.Context, t *asynq.Task) error {
	var payload DistributePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal distribution payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RequestId == "" {
		return fmt.Errorf("empty request id in payload: %w", asynq.SkipRetry)
	}

	n, err := h.distributor.DistributeRequest(ctx, payload.RequestId)
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrValidation) {
		return fmt.Errorf("request %s: %v: %w", payload.RequestId, err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("request %s: %w", payload.RequestId, err)
	}

	h.log.Debug("dispatch: request distributed", zap.String("request", payload.RequestId), zap.Int("created", n))
	return nil
}

// NewServer builds the worker server; it is started by the caller.
func NewServer(cfg config.RedisConfig, concurrency int, log *zap.Logger) *asynq.Server {
	return asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			Queue: 1,
		},
		Logger:          log.Sugar(),
		ShutdownTimeout: 10 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("dispatch: task failed",
				zap.String("type", task.Type()),
				zap.ByteString("payload", task.Payload()),
				zap.Error(err))
		}),
	})
}
