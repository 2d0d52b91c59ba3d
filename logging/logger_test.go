package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// TestAddAndRemoveWriter will test Logger.AddWriter and Logger.RemoveWriter to ensure that they work as expected.
func TestAddAndRemoveWriter(t *testing.T) {
	logger := NewLogger(zerolog.InfoLevel, false, nil)

	var bufA, bufB bytes.Buffer
	logger.AddWriter(&bufA, UNSTRUCTURED)
	logger.AddWriter(&bufB, UNSTRUCTURED)
	assert.Equal(t, 2, len(logger.writers))

	// Adding the same writer again should not duplicate it.
	logger.AddWriter(&bufA, UNSTRUCTURED)
	assert.Equal(t, 2, len(logger.writers))

	logger.RemoveWriter(&bufA)
	assert.Equal(t, 1, len(logger.writers))
}

// TestSubLogger verifies that a sub-logger carries a key/value pair on every subsequent log line.
func TestSubLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(zerolog.InfoLevel, false, nil)
	logger.AddWriter(&buf, STRUCTURED)

	sub := logger.NewSubLogger("module", "compilation")
	sub.Info("compiling")

	assert.Contains(t, buf.String(), "compilation")
	assert.Contains(t, buf.String(), "compiling")
}

// TestSetLevel verifies that SetLevel is reflected by both the console and multi loggers.
func TestSetLevel(t *testing.T) {
	logger := NewLogger(zerolog.InfoLevel, false, nil)
	assert.Equal(t, zerolog.InfoLevel, logger.Level())

	logger.SetLevel(zerolog.WarnLevel)
	assert.Equal(t, zerolog.WarnLevel, logger.Level())
}
