package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
)

const (
	runLockKey = "import:run:lock"
	lastRunKey = "import:run:last"
)

// releaseLockScript deletes the lock only if it is still held by the
// caller, so a run that outlived its TTL cannot drop a newer run's lock.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisStore keeps cross-process import state: a run lock so that only one
// importer writes at a time, and a hash describing the most recent run.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// AcquireRunLock returns false when another run holds the lock.
func (s *RedisStore) AcquireRunLock(ctx context.Context, runID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, runLockKey, runID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring run lock: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) ReleaseRunLock(ctx context.Context, runID string) error {
	if err := releaseLockScript.Run(ctx, s.client, []string{runLockKey}, runID).Err(); err != nil {
		return fmt.Errorf("releasing run lock: %w", err)
	}
	return nil
}

// SaveRunState overwrites the last-run hash.
func (s *RedisStore) SaveRunState(ctx context.Context, run domain.ImportRun) error {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	fields := map[string]any{
		"id":         run.ID,
		"state":      string(run.State),
		"started_at": run.StartedAt.UTC().Format(time.RFC3339Nano),
		"summary":    string(summary),
		"error":      run.Error,
	}
	if run.FinishedAt != nil {
		fields["finished_at"] = run.FinishedAt.UTC().Format(time.RFC3339Nano)
	} else {
		fields["finished_at"] = ""
	}

	if err := s.client.HSet(ctx, lastRunKey, fields).Err(); err != nil {
		return fmt.Errorf("saving run state: %w", err)
	}
	return nil
}

// LastRunState returns nil when no run has been recorded.
func (s *RedisStore) LastRunState(ctx context.Context) (*domain.ImportRun, error) {
	data, err := s.client.HGetAll(ctx, lastRunKey).Result()
	if err != nil {
		return nil, fmt.Errorf("loading run state: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	run := domain.ImportRun{
		ID:    data["id"],
		State: domain.RunState(data["state"]),
		Error: data["error"],
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, data["started_at"]); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if v := data["finished_at"]; v != "" {
		finished, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		run.FinishedAt = &finished
	}
	if v := data["summary"]; v != "" {
		if err := json.Unmarshal([]byte(v), &run.Summary); err != nil {
			return nil, fmt.Errorf("decoding summary: %w", err)
		}
	}
	return &run, nil
}

// Ping reports whether redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}
