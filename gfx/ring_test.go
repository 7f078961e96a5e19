package gfx_test

import (
	"context"
	"testing"
	"time"

	"github.com/devblok/pinch/gfx"
	"github.com/devblok/pinch/model"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRingSize(t *testing.T) {
	_, err := gfx.NewRing(0, nil)
	assert.Equal(t, gfx.ErrRingSize, errors.Cause(err))

	r, err := gfx.NewRing(3, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Size())
	assert.Equal(t, 3, r.Available())
}

func TestAcquireRelease(t *testing.T) {
	r, err := gfx.NewRing(2, nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := r.Acquire(ctx)
	require.NoError(t, err)
	second, err := r.Acquire(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Index(), second.Index())
	assert.Equal(t, uint64(1), first.Serial())
	assert.Equal(t, uint64(2), second.Serial())
	assert.Equal(t, 0, r.Available())
	assert.Equal(t, model.IdentityUniform(), *first.Uniform)

	first.Release()
	first.Release()
	assert.Equal(t, 1, r.Available())

	third, err := r.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Index(), third.Index())
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	r, err := gfx.NewRing(1, logger)
	require.NoError(t, err)

	held, err := r.Acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan *gfx.Frame)
	go func() {
		f, err := r.Acquire(context.Background())
		if err == nil {
			acquired <- f
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("acquired a frame while the only one is in flight")
	case <-time.After(20 * time.Millisecond):
	}

	held.Release()
	select {
	case f := <-acquired:
		require.NotNil(t, f)
		assert.Equal(t, held.Index(), f.Index())
	case <-time.After(time.Second):
		t.Fatal("frame was not handed over after release")
	}

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestAcquireCancelled(t *testing.T) {
	r, err := gfx.NewRing(1, nil)
	require.NoError(t, err)
	_, err = r.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = r.Acquire(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestFrameBytes(t *testing.T) {
	r, err := gfx.NewRing(1, nil)
	require.NoError(t, err)
	f, err := r.Acquire(context.Background())
	require.NoError(t, err)

	f.Uniform.View = glm.Scale3D(2, 2, 1)
	data := f.Bytes()
	require.Len(t, data, model.UniformSize)

	var decoded model.Uniform
	require.NoError(t, decoded.Decode(data))
	assert.Equal(t, *f.Uniform, decoded)

	var releasable gfx.Releasable = f
	releasable.Release()
	assert.Equal(t, 1, r.Available())
}

func TestStaleReleaseKeepsReacquiredFrame(t *testing.T) {
	r, err := gfx.NewRing(1, nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := r.Acquire(ctx)
	require.NoError(t, err)
	first.Release()

	second, err := r.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Index(), second.Index())

	// the old handle no longer owns the slot
	first.Release()
	assert.Equal(t, 0, r.Available())

	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = r.Acquire(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)

	second.Release()
	assert.Equal(t, 1, r.Available())
}
