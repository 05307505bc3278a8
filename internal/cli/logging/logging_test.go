package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogSingletonIsNonNil(t *testing.T) {
	assert.NotNil(t, Log)
}

func TestInitAcceptsEveryLevelWithoutPanicking(t *testing.T) {
	for _, lvl := range []Level{CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG} {
		assert.NotPanics(t, func() { Init(lvl) })
	}
}
