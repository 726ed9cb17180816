package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gigscout-engine/internal/domain"
)

// Redis shares status between the web and worker processes. The snapshot and
// the last result live under Key and Key+":last".
type Redis struct {
	Client *redis.Client
	Key    string
}

func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = "gigscout:status"
	}
	return &Redis{Client: client, Key: key}
}

// OpenRedis parses a redis:// URL and pings the server.
func OpenRedis(ctx context.Context, url, key string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("status: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("status: redis ping: %w", err)
	}
	return NewRedis(client, key), nil
}

func (r *Redis) lastKey() string { return r.Key + ":last" }

func (r *Redis) Begin(ctx context.Context, runID string, trigger domain.Trigger, at time.Time) error {
	return r.update(ctx, func(s *Snapshot) { ApplyBegin(s, runID, trigger, at) })
}

func (r *Redis) Finish(ctx context.Context, res domain.RunResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("status: encode result: %w", err)
	}
	if err := r.update(ctx, func(s *Snapshot) { ApplyFinish(s, res) }); err != nil {
		return err
	}
	if err := r.Client.Set(ctx, r.lastKey(), b, 0).Err(); err != nil {
		return fmt.Errorf("status: redis set last: %w", err)
	}
	return nil
}

func (r *Redis) Abandon(ctx context.Context, at time.Time) (bool, error) {
	var changed bool
	err := r.update(ctx, func(s *Snapshot) { changed = ApplyAbandon(s, at) })
	return changed, err
}

func (r *Redis) Get(ctx context.Context) (Snapshot, error) {
	b, err := r.Client.Get(ctx, r.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Initial(), nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("status: redis get: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, fmt.Errorf("status: decode snapshot: %w", err)
	}
	return s, nil
}

func (r *Redis) LastResult(ctx context.Context) (domain.RunResult, error) {
	b, err := r.Client.Get(ctx, r.lastKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RunResult{}, ErrNotFound
	}
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("status: redis get last: %w", err)
	}
	var res domain.RunResult
	if err := json.Unmarshal(b, &res); err != nil {
		return domain.RunResult{}, fmt.Errorf("status: decode result: %w", err)
	}
	return res, nil
}

// update applies fn to the stored snapshot inside an optimistic transaction.
func (r *Redis) update(ctx context.Context, fn func(*Snapshot)) error {
	txf := func(tx *redis.Tx) error {
		s := Initial()
		b, err := tx.Get(ctx, r.Key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(b, &s); err != nil {
				return err
			}
		}
		fn(&s)
		out, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, r.Key, out, 0)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := r.Client.Watch(ctx, txf, r.Key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("status: redis update: %w", err)
		}
		return nil
	}
	return fmt.Errorf("status: redis update: %w", redis.TxFailedErr)
}
