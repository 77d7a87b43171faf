package resource

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilControllerIsUnlimited(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestUnconfiguredControllerIsUnlimited(t *testing.T) {
	c := NewController(Config{})
	assert.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestAcquireIOSplitsLargeBursts(t *testing.T) {
	// Requesting more than the burst in one call must not error.
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	assert.NoError(t, c.AcquireIO(context.Background(), (1<<20)+1))
}

func TestAcquireIOHonorsCancellation(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Two bytes at one byte/sec cannot complete within the deadline.
	err := c.AcquireIO(ctx, 2)
	assert.Error(t, err)
}

func TestRateLimitedWriter(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	var buf bytes.Buffer

	w := NewRateLimitedWriter(context.Background(), &buf, c)
	n, err := w.Write([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "payload", buf.String())
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	r := NewRateLimitedReader(context.Background(), bytes.NewReader([]byte("payload")), c)
	p := make([]byte, 7)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "payload", string(p))
}
