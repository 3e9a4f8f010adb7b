package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	orig := Logf
	defer SetLogger(orig)

	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = fmt.Sprintf(format, v...)
	})
	Logf("frame %d dropped", 42)
	assert.Equal(t, "frame 42 dropped", captured)

	SetLogger(nil)
	Logf("should be silent")
	assert.Equal(t, "frame 42 dropped", captured)
}
