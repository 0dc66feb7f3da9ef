// internal/tsdb/client.go
package tsdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"k8s.io/klog/v2"
)

// selfTestKey is written, read back and deleted by SelfTest.
const selfTestKey = "ping"

// Config is minimal store connection config.
type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// Dialer opens one short-lived client per cycle.
type Dialer struct {
	opts *redis.Options
}

func NewDialer(cfg Config) (*Dialer, error) {
	if cfg.Addr == "" {
		return nil, errors.New("tsdb: addr required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Dialer{opts: &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		PoolSize:     1,
	}}, nil
}

// Open connects and verifies the connection with PING.
func (d *Dialer) Open(ctx context.Context) (*Client, error) {
	rdb := redis.NewClient(d.opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("tsdb: connect %s: %w", d.opts.Addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Client issues RedisTimeSeries and hash commands on one connection.
type Client struct {
	rdb *redis.Client
}

func (c *Client) Close() error { return c.rdb.Close() }

// QueryIndex runs TS.QUERYINDEX with the given label filters.
func (c *Client) QueryIndex(ctx context.Context, filters ...string) ([]string, error) {
	args := make([]interface{}, 0, len(filters)+1)
	args = append(args, "TS.QUERYINDEX")
	for _, f := range filters {
		args = append(args, f)
	}

	res, err := c.rdb.Do(ctx, args...).Slice()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(res))
	for _, v := range res {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("tsdb: unexpected TS.QUERYINDEX element %T", v)
		}
		keys = append(keys, s)
	}
	return keys, nil
}

// CreateSeries runs TS.CREATE key LABELS k v ... with labels in sorted order.
func (c *Client) CreateSeries(ctx context.Context, key string, labels map[string]string) error {
	args := []interface{}{"TS.CREATE", key}
	if len(labels) > 0 {
		args = append(args, "LABELS")
		for _, k := range sortedKeys(labels) {
			args = append(args, k, labels[k])
		}
	}
	return c.rdb.Do(ctx, args...).Err()
}

// SetHash runs HSET key with every field.
func (c *Client) SetHash(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	values := make([]interface{}, 0, 2*len(fields))
	for _, k := range sortedKeys(fields) {
		values = append(values, k, fields[k])
	}
	return c.rdb.HSet(ctx, key, values...).Err()
}

// ReplaceHash runs DEL key and HSET key inside MULTI/EXEC, so readers see
// either the old hash or the new one.
func (c *Client) ReplaceHash(ctx context.Context, key string, fields map[string]string) error {
	values := make([]interface{}, 0, 2*len(fields))
	for _, k := range sortedKeys(fields) {
		values = append(values, k, fields[k])
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values...)
		}
		return nil
	})
	return err
}

// Add runs TS.ADD key timestamp value.
func (c *Client) Add(ctx context.Context, key string, tsMillis int64, value float64) error {
	return c.rdb.Do(ctx,
		"TS.ADD", key,
		strconv.FormatInt(tsMillis, 10),
		strconv.FormatFloat(value, 'f', -1, 64),
	).Err()
}

// SelfTest writes a random token, reads it back, compares and deletes it.
func (c *Client) SelfTest(ctx context.Context) error {
	token := uuid.NewString()

	if err := c.rdb.Set(ctx, selfTestKey, token, 0).Err(); err != nil {
		return fmt.Errorf("tsdb self-test: set: %w", err)
	}
	got, err := c.rdb.Get(ctx, selfTestKey).Result()
	if err != nil {
		return fmt.Errorf("tsdb self-test: get: %w", err)
	}
	if got != token {
		return fmt.Errorf("tsdb self-test: read back %q, wrote %q", got, token)
	}
	if err := c.rdb.Del(ctx, selfTestKey).Err(); err != nil {
		return fmt.Errorf("tsdb self-test: del: %w", err)
	}

	klog.V(2).Info("store self-test passed")
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
