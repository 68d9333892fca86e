package payment

import (
	"context"
	"time"

	"yumspot-api/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventStore remembers provider events that were already handled so a
// redelivered webhook has no side effects.
type EventStore interface {
	// Claim records id and reports false when it was recorded before.
	Claim(ctx context.Context, id, eventType string, payload []byte) (bool, error)
	// Release forgets id so the provider's retry is processed again.
	Release(ctx context.Context, id string) error
}

const DefaultEventTTL = 7 * 24 * time.Hour

type RedisEventStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisEventStore(rdb *redis.Client, ttl time.Duration) *RedisEventStore {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &RedisEventStore{rdb: rdb, prefix: "yumspot:webhook:", ttl: ttl}
}

func (s *RedisEventStore) Claim(ctx context.Context, id, eventType string, _ []byte) (bool, error) {
	return s.rdb.SetNX(ctx, s.prefix+id, eventType, s.ttl).Result()
}

func (s *RedisEventStore) Release(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, s.prefix+id).Err()
}

// DBEventStore keeps handled events in the webhook_events table.
type DBEventStore struct {
	DB *gorm.DB
}

func (s DBEventStore) Claim(ctx context.Context, id, eventType string, payload []byte) (bool, error) {
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WebhookEvent{ID: id, Type: eventType, Payload: datatypes.JSON(payload)})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s DBEventStore) Release(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Delete(&models.WebhookEvent{}, "id = ?", id).Error
}
