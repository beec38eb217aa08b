// Package tasks coordinates background work through a Redis list used as
// the broker and one Redis hash per task used as the result backend.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/01moynul/retail-orders/internal/apperr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTaskNotFound = apperr.NotFound("task_not_found", "task not found")

type State string

const (
	StatePending State = "pending"
	StateSuccess State = "success"
	StateFailure State = "failure"
)

// TaskError is the machine-readable failure recorded for a task.
type TaskError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Status is what a poller sees. Result is set only on success and Error
// only on failure.
type Status struct {
	ID          string          `json:"task_id"`
	Name        string          `json:"name"`
	State       State           `json:"status"`
	Attempts    int             `json:"attempts"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *TaskError      `json:"error,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`

	// Owner is the user who submitted the task, zero for system tasks.
	Owner int64 `json:"-"`
}

// Submitter hands work to the background workers without waiting for it.
type Submitter interface {
	Submit(ctx context.Context, name string, args any) (string, error)
}

type envelope struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Args    json.RawMessage `json:"args"`
	Attempt int             `json:"attempt"`
}

type Queue struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

// NewQueue stores task statuses for ttl after their last update.
func NewQueue(client *redis.Client, namespace string, ttl time.Duration) *Queue {
	return &Queue{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (q *Queue) GenerateKey(kind, key string) string {
	return fmt.Sprintf("%s:%s:%s", q.namespace, kind, key)
}

func (q *Queue) queueKey() string {
	return q.GenerateKey("queue", "default")
}

// Submit records a pending status and enqueues a system task. It returns as
// soon as Redis acknowledged both writes.
func (q *Queue) Submit(ctx context.Context, name string, args any) (string, error) {
	return q.SubmitFor(ctx, 0, name, args)
}

// SubmitFor is Submit on behalf of a user, who becomes the task's Owner.
func (q *Queue) SubmitFor(ctx context.Context, owner int64, name string, args any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("tasks: encode %s args: %w", name, err)
	}
	env := envelope{ID: uuid.NewString(), Name: name, Args: raw}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("tasks: encode %s: %w", name, err)
	}

	statusKey := q.GenerateKey("task", env.ID)
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, statusKey, map[string]any{
			"name":         name,
			"state":        string(StatePending),
			"attempts":     0,
			"submitted_at": q.now().UTC().Format(time.RFC3339Nano),
			"owner":        owner,
		})
		pipe.Expire(ctx, statusKey, q.ttl)
		pipe.LPush(ctx, q.queueKey(), payload)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("tasks: submit %s: %w", name, err)
	}
	return env.ID, nil
}

// Poll returns the current status of a task.
func (q *Queue) Poll(ctx context.Context, id string) (*Status, error) {
	fields, err := q.client.HGetAll(ctx, q.GenerateKey("task", id)).Result()
	if err != nil {
		return nil, fmt.Errorf("tasks: poll %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, ErrTaskNotFound
	}

	st := &Status{
		ID:    id,
		Name:  fields["name"],
		State: State(fields["state"]),
	}
	st.Attempts, _ = strconv.Atoi(fields["attempts"])
	st.Owner, _ = strconv.ParseInt(fields["owner"], 10, 64)
	if t, err := time.Parse(time.RFC3339Nano, fields["submitted_at"]); err == nil {
		st.SubmittedAt = t
	}
	if v, ok := fields["finished_at"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.FinishedAt = &t
		}
	}

	switch st.State {
	case StateSuccess:
		st.Result = json.RawMessage(fields["result"])
	case StateFailure:
		st.Error = &TaskError{Code: fields["error_code"], Message: fields["error_message"]}
	}
	return st, nil
}

// SetLatest remembers id as the most recent task submitted under name.
func (q *Queue) SetLatest(ctx context.Context, name, id string) error {
	return q.client.Set(ctx, q.GenerateKey("latest", name), id, q.ttl).Err()
}

// Latest returns the id stored by SetLatest, or ErrTaskNotFound.
func (q *Queue) Latest(ctx context.Context, name string) (string, error) {
	id, err := q.client.Get(ctx, q.GenerateKey("latest", name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTaskNotFound
	}
	if err != nil {
		return "", fmt.Errorf("tasks: latest %s: %w", name, err)
	}
	return id, nil
}

// pop blocks up to timeout for the next task. A nil envelope means the
// queue stayed empty.
func (q *Queue) pop(ctx context.Context, timeout time.Duration) (*envelope, error) {
	res, err := q.client.BRPop(ctx, timeout, q.queueKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal([]byte(res[1]), &env); err != nil {
		return nil, fmt.Errorf("tasks: decode envelope: %w", err)
	}
	return &env, nil
}

func (q *Queue) requeue(ctx context.Context, env envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	statusKey := q.GenerateKey("task", env.ID)
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, statusKey, "attempts", env.Attempt)
		pipe.Expire(ctx, statusKey, q.ttl)
		pipe.LPush(ctx, q.queueKey(), payload)
		return nil
	})
	return err
}

func (q *Queue) finish(ctx context.Context, env envelope, fields map[string]any) error {
	fields["attempts"] = env.Attempt + 1
	fields["finished_at"] = q.now().UTC().Format(time.RFC3339Nano)
	statusKey := q.GenerateKey("task", env.ID)
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, statusKey, fields)
		pipe.Expire(ctx, statusKey, q.ttl)
		return nil
	})
	return err
}

func (q *Queue) markSuccess(ctx context.Context, env envelope, result []byte) error {
	return q.finish(ctx, env, map[string]any{
		"state":  string(StateSuccess),
		"result": string(result),
	})
}

func (q *Queue) markFailure(ctx context.Context, env envelope, code, message string) error {
	return q.finish(ctx, env, map[string]any{
		"state":         string(StateFailure),
		"error_code":    code,
		"error_message": message,
	})
}
