package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = fmt.Sprintf(format, v...)
	})
	defer SetLogger(nil)

	Logf("smoothed %d states", 7)
	assert.Equal(t, "smoothed 7 states", captured)
}

func TestSetLoggerNilMutes(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		Logf("dropped on the floor %d", 1)
	})
}
