package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportKey(t *testing.T) {
	key := ReportKey("4f1c", "All", "")
	assert.Equal(t, "victoria:report:4f1c:All:", key)

	key = ReportKey("4f1c", "2025-10-14", "2025-10-01")
	assert.Equal(t, "victoria:report:4f1c:2025-10-14:2025-10-01", key)
}

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisCache("not-a-url")
	assert.Error(t, err)
}
