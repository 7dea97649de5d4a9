// Package redisstore implements service.Service on Redis.
//
// Each task is a hash at "<collection>:doc:<id>". A sorted set at
// "<collection>:index" scores task IDs by creation time in microseconds,
// taken from the Redis server clock.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"gtodo/internal/service"
)

// OpTimeout bounds every call.
const OpTimeout = 5 * time.Second

// Store keeps tasks in Redis.
type Store struct {
	rdb        *redis.Client
	collection string
}

// Open connects to addr and pings the server.
func Open(ctx context.Context, addr, password string, db int, collection string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return New(rdb, collection), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, collection string) *Store {
	if collection == "" {
		collection = service.DefaultCollection
	}
	return &Store{rdb: rdb, collection: collection}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) indexKey() string {
	return s.collection + ":index"
}

func (s *Store) docKey(id string) string {
	return s.collection + ":doc:" + id
}

// CreateTask implements service.Service.
func (s *Store) CreateTask(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	now, err := s.rdb.Time(ctx).Result()
	if err != nil {
		return "", wrapError(err)
	}

	id := uuid.NewString()
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.docKey(id),
			service.FieldText, text,
			service.FieldCompleted, "0",
			service.FieldCreatedAt, strconv.FormatInt(now.UnixMicro(), 10),
		)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(now.UnixMicro()), Member: id})
		return nil
	})
	if err != nil {
		return "", wrapError(err)
	}
	return id, nil
}

// ListTasks implements service.Service.
func (s *Store) ListTasks(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	ids, err := s.rdb.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, wrapError(err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.docKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	res := make([]service.Task, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// Index entry without a document: deleted concurrently.
			continue
		}
		res = append(res, decodeTask(ids[i], fields))
	}
	return res, nil
}

func decodeTask(id string, fields map[string]string) service.Task {
	t := service.Task{
		ID:        id,
		Text:      fields[service.FieldText],
		Completed: fields[service.FieldCompleted] == "1",
	}
	if us, err := strconv.ParseInt(fields[service.FieldCreatedAt], 10, 64); err == nil {
		t.CreatedAt = time.UnixMicro(us).UTC()
	}
	return t
}

// UpdateTask implements service.Service. The existence check and the write
// run in one WATCH transaction so a concurrent delete is not resurrected.
func (s *Store) UpdateTask(ctx context.Context, id string, update service.TaskUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	key := s.docKey(id)
	var values []any
	if update.Text != nil {
		values = append(values, service.FieldText, *update.Text)
	}
	if update.Completed != nil {
		values = append(values, service.FieldCompleted, boolField(*update.Completed))
	}

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return service.ErrNotFound
		}
		if update.IsEmpty() {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, values...)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// DeleteTask implements service.Service.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return wrapError(err)
	}
	return nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func wrapError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return err
	case errors.Is(err, redis.Nil):
		return service.ErrNotFound
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("%w: concurrent modification", service.ErrTransport)
	default:
		return fmt.Errorf("%w: %w", service.ErrTransport, err)
	}
}
