package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Generic Accessors ---

// GetValue retrieves a value for a given key from the metadata table.
func GetValue(db *gorm.DB, key string) (string, error) {
	var meta Metadata
	err := db.Where("key = ?", key).First(&meta).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// If the key doesn't exist, return an empty string, which is a valid default.
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetValue creates or updates a value for a given key.
func SetValue(db *gorm.DB, key, value string) error {
	// Upsert on the unique key; only the value and the update time change.
	meta := Metadata{
		Key:   key,
		Value: value,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&meta).Error
}

// --- Specific Helpers for Type Conversion ---

// GetInt retrieves an integer value, returning 0 when the key is missing.
func GetInt(db *gorm.DB, key string) (int, error) {
	valueStr, err := GetValue(db, key)
	if err != nil {
		return 0, err
	}
	if valueStr == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("无法解析元数据 '%s' 的值: %w", key, err)
	}
	return n, nil
}

// SetInt stores an integer value.
func SetInt(db *gorm.DB, key string, n int) error {
	return SetValue(db, key, strconv.Itoa(n))
}

// GetBool retrieves a boolean value, returning false when the key is missing.
func GetBool(db *gorm.DB, key string) (bool, error) {
	valueStr, err := GetValue(db, key)
	if err != nil {
		return false, err
	}
	if valueStr == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, fmt.Errorf("无法解析元数据 '%s' 的值: %w", key, err)
	}
	return b, nil
}

// SetBool stores a boolean value.
func SetBool(db *gorm.DB, key string, b bool) error {
	return SetValue(db, key, strconv.FormatBool(b))
}

// --- Deck Rating Leases ---

// BeginRatingDecks records a lease for a deck import that expires after ttl,
// so a killed import cannot block the statistics job for good.
func BeginRatingDecks(db *gorm.DB, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	expires := time.Now().Add(ttl).UTC().Format(time.RFC3339Nano)
	if err := SetValue(db, RatingLeaseKeyPrefix+token, expires); err != nil {
		return "", err
	}
	return token, nil
}

// EndRatingDecks removes the lease of one import. Other imports keep theirs.
func EndRatingDecks(db *gorm.DB, token string) error {
	return db.Unscoped().Where("key = ?", RatingLeaseKeyPrefix+token).Delete(&Metadata{}).Error
}

// IsRatingDecks reports whether any deck import holds a live lease.
// Expired leases are removed.
func IsRatingDecks(db *gorm.DB) (bool, error) {
	var leases []Metadata
	if err := db.Where("key LIKE ?", RatingLeaseKeyPrefix+"%").Find(&leases).Error; err != nil {
		return false, err
	}

	now := time.Now()
	live := false
	var expired []string
	for _, l := range leases {
		expires, err := time.Parse(time.RFC3339Nano, l.Value)
		if err != nil || !expires.After(now) {
			expired = append(expired, l.Key)
			continue
		}
		live = true
	}
	if len(expired) > 0 {
		if err := db.Unscoped().Where("key IN ?", expired).Delete(&Metadata{}).Error; err != nil {
			return live, fmt.Errorf("无法清理过期的评分租约: %w", err)
		}
	}
	return live, nil
}
