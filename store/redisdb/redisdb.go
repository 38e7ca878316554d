// Package redisdb provides an implementation of modscot's store.GlobalSiloStringStorer backed by
// redis. Every silo is a redis hash named <name>:<silo>
package redisdb

import (
	"context"
	"strings"

	"github.com/alexandre-normand/modscot/store"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	scanBatchSize = 100
	keySeparator  = ":"
)

// hasher is implemented by redis clients. It lists the methods of redis.Client this package uses so
// tests can run without a redis server
type hasher interface {
	HGet(ctx context.Context, key string, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisDB implements store.GlobalSiloStringStorer on redis hashes
type RedisDB struct {
	client hasher
	name   string
}

// Options holds the connection settings of a RedisDB
type Options struct {
	Addr     string
	Password string
	DB       int
}

// New connects to redis and returns a RedisDB storing its hashes under the given name
func New(name string, opts Options) (rdb *RedisDB, err error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	return newWithHasher(name, client)
}

func newWithHasher(name string, client hasher) (rdb *RedisDB, err error) {
	if err = client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "unable to reach redis")
	}

	return &RedisDB{client: client, name: name}, nil
}

func (rdb *RedisDB) hashKey(silo string) string {
	return rdb.name + keySeparator + silo
}

// GetString returns the value associated to a key of the default silo
func (rdb *RedisDB) GetString(key string) (value string, err error) {
	return rdb.GetSiloString("", key)
}

// GetSiloString returns the value associated to a key of a silo
func (rdb *RedisDB) GetSiloString(silo string, key string) (value string, err error) {
	value, err = rdb.client.HGet(context.Background(), rdb.hashKey(silo), key).Result()
	if err == redis.Nil {
		return "", errors.Wrapf(store.ErrKeyNotFound, "[%s] in silo [%s]", key, silo)
	}

	return value, err
}

// PutString stores the key/value in the default silo
func (rdb *RedisDB) PutString(key string, value string) (err error) {
	return rdb.PutSiloString("", key, value)
}

// PutSiloString stores the key/value in a silo
func (rdb *RedisDB) PutSiloString(silo string, key string, value string) (err error) {
	return rdb.client.HSet(context.Background(), rdb.hashKey(silo), key, value).Err()
}

// DeleteString deletes the key of the default silo
func (rdb *RedisDB) DeleteString(key string) (err error) {
	return rdb.DeleteSiloString("", key)
}

// DeleteSiloString deletes the key of a silo
func (rdb *RedisDB) DeleteSiloString(silo string, key string) (err error) {
	return rdb.client.HDel(context.Background(), rdb.hashKey(silo), key).Err()
}

// Scan returns the entries of the default silo
func (rdb *RedisDB) Scan() (entries map[string]string, err error) {
	return rdb.ScanSilo("")
}

// ScanSilo returns the entries of a silo
func (rdb *RedisDB) ScanSilo(silo string) (entries map[string]string, err error) {
	return rdb.client.HGetAll(context.Background(), rdb.hashKey(silo)).Result()
}

// GlobalScan returns the entries of every silo
func (rdb *RedisDB) GlobalScan() (entries map[string]map[string]string, err error) {
	ctx := context.Background()
	entries = make(map[string]map[string]string)
	prefix := rdb.name + keySeparator

	var cursor uint64
	for {
		keys, next, err := rdb.client.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "Error scanning silos of [%s]", rdb.name)
		}

		for _, k := range keys {
			silo := strings.TrimPrefix(k, prefix)
			if entries[silo], err = rdb.ScanSilo(silo); err != nil {
				return nil, errors.Wrapf(err, "Error loading silo [%s]", silo)
			}
		}

		if next == 0 {
			return entries, nil
		}

		cursor = next
	}
}

// Close closes the redis client
func (rdb *RedisDB) Close() (err error) {
	return rdb.client.Close()
}
