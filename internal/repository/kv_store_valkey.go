package repository

import (
	"context"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"
)

type valkeyKeyValueStore struct {
	client valkeylib.Client
}

func NewValkeyKeyValueStore(client valkeylib.Client) KeyValueStore {
	return &valkeyKeyValueStore{client: client}
}

func (s *valkeyKeyValueStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	b := s.client.B()
	if ttl > 0 {
		return s.client.Do(ctx, b.Set().Key(key).Value(string(value)).Ex(ttl).Build()).Error()
	}
	return s.client.Do(ctx, b.Set().Key(key).Value(string(value)).Build()).Error()
}

func (s *valkeyKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkeylib.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *valkeyKeyValueStore) Delete(ctx context.Context, key string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(key).Build()).Error()
}
