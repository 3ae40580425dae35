package lock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLocker(t *testing.T) {
	var l Locker = NopLocker{}
	release, err := l.Acquire(context.Background(), "route:x:Tahsas 2018")
	require.NoError(t, err)
	assert.NotPanics(t, release)

	// never contends
	release2, err := l.Acquire(context.Background(), "route:x:Tahsas 2018")
	require.NoError(t, err)
	release2()
}
