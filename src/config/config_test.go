package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("STR_TEST_INT", "42")
	assert.Equal(t, 42, getEnvAsInt("STR_TEST_INT", 7))

	t.Setenv("STR_TEST_INT", "forty-two")
	assert.Equal(t, 7, getEnvAsInt("STR_TEST_INT", 7))

	assert.Equal(t, 20, getEnvAsInt("STR_TEST_INT_UNSET", 20))
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("STR_TEST_DURATION", "90m")
	assert.Equal(t, 90*time.Minute, getEnvAsDuration("STR_TEST_DURATION", time.Hour))

	t.Setenv("STR_TEST_DURATION", "soon")
	assert.Equal(t, time.Hour, getEnvAsDuration("STR_TEST_DURATION", time.Hour))
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("STR_TEST_ORIGINS", " http://a.test , ,http://b.test")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, getEnvAsList("STR_TEST_ORIGINS", ""))

	assert.Equal(t, []string{"http://localhost:3000"}, getEnvAsList("STR_TEST_ORIGINS_UNSET", "http://localhost:3000"))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CSRF_AUTH_KEY", "csrf-key")
	t.Setenv("HEADER_SCAN_LINES", "-3")
	t.Setenv("MAX_UPLOAD_SIZE_BYTES", "nope")

	LoadConfig()

	assert.Equal(t, DefaultHeaderScanLines, Cfg.HeaderScanLines)
	assert.Equal(t, int64(5*1024*1024), Cfg.MaxUploadSizeBytes)
	assert.Equal(t, []byte("csrf-key"), Cfg.CSRFAuthKey)
}
