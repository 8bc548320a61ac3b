package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const examPayloadKeyPrefix = "exam:payload:"

// ExamCacheRepository 缓存学生端试卷内容；rdb 为 nil 时所有操作为空操作
type ExamCacheRepository struct {
	Redis *redis.Client
}

func NewExamCacheRepository(rdb *redis.Client) *ExamCacheRepository {
	return &ExamCacheRepository{Redis: rdb}
}

func (r *ExamCacheRepository) Enabled() bool {
	return r != nil && r.Redis != nil
}

func (r *ExamCacheRepository) Get(ctx context.Context, examID string) ([]byte, bool, error) {
	if !r.Enabled() {
		return nil, false, nil
	}
	data, err := r.Redis.Get(ctx, examPayloadKeyPrefix+examID).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *ExamCacheRepository) Set(ctx context.Context, examID string, data []byte, ttl time.Duration) error {
	if !r.Enabled() || ttl <= 0 {
		return nil
	}
	return r.Redis.Set(ctx, examPayloadKeyPrefix+examID, data, ttl).Err()
}

func (r *ExamCacheRepository) Delete(ctx context.Context, examID string) error {
	if !r.Enabled() {
		return nil
	}
	return r.Redis.Del(ctx, examPayloadKeyPrefix+examID).Err()
}
