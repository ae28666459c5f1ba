package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(gorm.ErrRecordNotFound))
	assert.True(t, IsRetryableError(errors.New("database is locked")))
	assert.True(t, IsRetryableError(errors.New("ERROR: could not serialize access due to concurrent update")))
	assert.False(t, IsRetryableError(errors.New("UNIQUE constraint failed")))
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(3, func() error {
		calls++
		return errors.New("UNIQUE constraint failed")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRetriesLockedDatabase(t *testing.T) {
	calls := 0
	err := Retry(3, func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "")
	assert.Error(t, err)
}

func TestRedisHealthToggle(t *testing.T) {
	t.Cleanup(func() { SetRedisHealthy(true) })

	SetRedisHealthy(false)
	assert.False(t, IsRedisHealthy())
	SetRedisHealthy(true)
	assert.True(t, IsRedisHealthy())
}
