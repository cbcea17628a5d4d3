package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mspsf/fbsession/internal/model"
)

// optionKeyValueStore keeps entries in the options table. Expired rows are
// treated as absent and removed when read.
type optionKeyValueStore struct {
	db    *gorm.DB
	clock clockwork.Clock
}

func NewOptionKeyValueStore(db *gorm.DB, clock clockwork.Clock) KeyValueStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &optionKeyValueStore{db: db, clock: clock}
}

func (s *optionKeyValueStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	opt := model.Option{Name: key, Value: value}
	if value == nil {
		opt.Value = []byte{}
	}
	if ttl > 0 {
		exp := s.clock.Now().Add(ttl)
		opt.ExpiresAt = &exp
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&opt).Error
}

func (s *optionKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	opt, err := s.load(ctx, key)
	if err != nil || opt == nil {
		return nil, err
	}
	return opt.Value, nil
}

func (s *optionKeyValueStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&model.Option{}, "name = ?", key).Error
}

func (s *optionKeyValueStore) load(ctx context.Context, key string) (*model.Option, error) {
	var opt model.Option
	err := s.db.WithContext(ctx).Where("name = ?", key).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if opt.Expired(s.clock.Now()) {
		if err := s.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &opt, nil
}
