/*
Package redisstore stores encoded forest models in a redis DB under
named keys, so models grown on one machine can be fetched and used on
another.
*/
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/redis.v5"
)

// ErrNotFound is returned when no model is stored under the requested
// name.
var ErrNotFound = errors.New("model not found")

// Store keeps encoded models in a redis DB, each under a key built from
// a common prefix and the model name.
type Store struct {
	rc     *redis.Client
	prefix string
}

// New builds a model Store backed by a redis DB.
func New(rc *redis.Client, prefix string) *Store {
	return &Store{rc, prefix}
}

// Put stores the encoded model under the given name, overwriting any
// model already stored under it.
func (s *Store) Put(ctx context.Context, name string, model []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.rc.Set(s.keyFor(name), model, 0).Result()
	if err != nil {
		return fmt.Errorf("storing model %q in redis: %v", name, err)
	}
	return nil
}

// Get returns the encoded model stored under the given name, or
// ErrNotFound if there is none.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.rc.Get(s.keyFor(name)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving model %q from redis: %v", name, err)
	}
	return data, nil
}

// Delete removes the model stored under the given name, if any.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.rc.Del(s.keyFor(name)).Result()
	if err != nil {
		return fmt.Errorf("deleting model %q from redis: %v", name, err)
	}
	return nil
}

// List returns the names of all stored models.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys, err := s.rc.Keys(fmt.Sprintf("%s:*", s.prefix)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing models in redis: %v", err)
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = strings.TrimPrefix(k, fmt.Sprintf("%s:", s.prefix))
	}
	return names, nil
}

func (s *Store) keyFor(name string) string {
	return fmt.Sprintf("%s:%s", s.prefix, name)
}
