package archive

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/datascope/datascope/pkg/errors"
	"github.com/datascope/datascope/pkg/report"
)

// RedisConfig configures the Redis archive backend.
type RedisConfig struct {
	// Address is the Redis server address (e.g., "localhost:6379")
	Address string

	// Password for Redis authentication (optional)
	Password string

	// Database number to use (default: 0)
	Database int

	// Prefix is prepended to all report keys (e.g., "datascope:reports:")
	Prefix string

	// TTL is the time-to-live for archived reports (0 = no expiration)
	TTL time.Duration

	// Timeout for Redis operations
	Timeout time.Duration

	// PoolSize is the maximum number of connections
	PoolSize int
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig(address string) RedisConfig {
	return RedisConfig{
		Address:  address,
		Prefix:   "datascope:reports:",
		TTL:      7 * 24 * time.Hour,
		Timeout:  5 * time.Second,
		PoolSize: 10,
	}
}

// Redis stores archived reports in Redis for low-latency retrieval.
type Redis struct {
	cfg    RedisConfig
	client *redis.Client
}

// NewRedis creates a Redis archive backend and verifies the connection.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "datascope:reports:"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeArchiveFailed, "failed to connect to Redis").
			WithContext("address", cfg.Address)
	}

	return &Redis{cfg: cfg, client: client}, nil
}

func (r *Redis) key(jobID string) string {
	return r.cfg.Prefix + jobID
}

// Save persists a report under the job ID, applying the configured TTL.
func (r *Redis) Save(ctx context.Context, jobID string, rep *report.Report) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	data, err := json.Marshal(rep)
	if err != nil {
		return errors.Wrap(err, errors.CodeArchiveFailed, "failed to marshal report").
			WithContext("job_id", jobID)
	}

	if err := r.client.Set(ctx, r.key(jobID), data, r.cfg.TTL).Err(); err != nil {
		return errors.Wrap(err, errors.CodeArchiveFailed, "failed to save report to Redis").
			WithContext("job_id", jobID)
	}
	return nil
}

// Load retrieves an archived report by job ID.
func (r *Redis) Load(ctx context.Context, jobID string) (*report.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key(jobID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.New(errors.CodeArchiveFailed, "report not found").
				WithContext("job_id", jobID)
		}
		return nil, errors.Wrap(err, errors.CodeArchiveFailed, "failed to load report from Redis").
			WithContext("job_id", jobID)
	}

	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, errors.Wrap(err, errors.CodeArchiveFailed, "failed to unmarshal report").
			WithContext("job_id", jobID)
	}
	return &rep, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
