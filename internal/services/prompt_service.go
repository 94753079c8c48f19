package services

import (
	"encoding/json"
	"fmt"
	"math"
	"promptrelay-backend/internal/database"
	"promptrelay-backend/internal/models"
	"promptrelay-backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	PromptRecordCacheKeyPrefix = "prompt_record:id:"
	PromptPageCacheKeyPrefix   = "prompt_record:page:"
	PromptCacheDuration        = 10 * time.Minute
)

// CreatePromptRecord persists one question/answer exchange. The question must be
// the raw user input.
func CreatePromptRecord(question, answer, backend string, meta map[string]interface{}) (*models.PromptRecord, error) {
	record := &models.PromptRecord{
		Question: question,
		Answer:   answer,
		Backend:  backend,
		Meta:     datatypes.JSONMap(meta),
	}

	if err := database.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to save prompt record: %w", err)
	}

	return record, nil
}

// GetPromptRecord retrieves a record by id, using cache. A cache hit carries
// only the public fields.
func GetPromptRecord(id uint) (*models.PromptRecord, error) {
	cacheKey := fmt.Sprintf("%s%d", PromptRecordCacheKeyPrefix, id)

	var record models.PromptRecord
	if getCached(cacheKey, &record) {
		return &record, nil
	}

	if err := database.DB.First(&record, id).Error; err != nil {
		return nil, err
	}

	// Records never change, so the cached copy cannot go stale.
	setCached(cacheKey, record)

	return &record, nil
}

// ListPromptRecords returns one page of records, newest (highest id) first.
// A page past the end yields an empty, non-nil slice.
func ListPromptRecords(page, perPage int) ([]models.PromptRecord, error) {
	if page < 1 || perPage < 1 {
		return nil, fmt.Errorf("invalid page %d or per_page %d", page, perPage)
	}

	records := []models.PromptRecord{}
	// No table can hold this many rows, and the offset would overflow.
	if page-1 > math.MaxInt/perPage {
		return records, nil
	}
	offset := (page - 1) * perPage

	cacheKey := ""
	if database.RedisClient != nil {
		// Pages are keyed on the newest id, which every create advances, so
		// a cached page can never hide a later record.
		latestID, err := latestPromptRecordID()
		if err != nil {
			return nil, err
		}
		cacheKey = fmt.Sprintf("%s%d:%d:%d", PromptPageCacheKeyPrefix, latestID, page, perPage)

		var cached []models.PromptRecord
		if getCached(cacheKey, &cached) {
			return cached, nil
		}
	}

	if err := database.DB.Order("id desc").Offset(offset).Limit(perPage).Find(&records).Error; err != nil {
		return nil, err
	}

	if cacheKey != "" {
		setCached(cacheKey, records)
	}

	return records, nil
}

func latestPromptRecordID() (uint, error) {
	var latestID uint
	err := database.DB.Model(&models.PromptRecord{}).Select("COALESCE(MAX(id), 0)").Scan(&latestID).Error
	return latestID, err
}

func getCached(key string, out interface{}) bool {
	if database.RedisClient == nil {
		return false
	}
	val, err := database.RedisClient.Get(database.Ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

// setCached stores the JSON form of value, which for records is only the
// public id, question and answer.
func setCached(key string, value interface{}) {
	if database.RedisClient == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := database.RedisClient.Set(database.Ctx, key, data, PromptCacheDuration).Err(); err != nil {
		logger.Log.Warn("Failed to cache prompt records", zap.String("key", key), zap.Error(err))
	}
}
