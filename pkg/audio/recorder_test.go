package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFailingRecorder struct {
	RecorderPCMDummy
	closed *bool
}

func (r pingFailingRecorder) Ping(context.Context) error {
	return errors.New("no default source")
}

func (r pingFailingRecorder) Close() error {
	*r.closed = true
	return nil
}

type recorderFactoryFunc func() (RecorderPCM, error)

func (fn recorderFactoryFunc) NewRecorderPCM() (RecorderPCM, error) {
	return fn()
}

func TestNewRecorderAuto(t *testing.T) {
	ctx := context.Background()

	_, err := NewRecorderAuto(ctx)
	require.Error(t, err)

	var closed bool
	RegisterRecorderFactory(300, recorderFactoryFunc(func() (RecorderPCM, error) {
		return nil, errors.New("no server")
	}))
	RegisterRecorderFactory(200, recorderFactoryFunc(func() (RecorderPCM, error) {
		return pingFailingRecorder{closed: &closed}, nil
	}))
	_, err = NewRecorderAuto(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no server")
	assert.Contains(t, err.Error(), "no default source")
	assert.True(t, closed)

	RegisterRecorderFactory(100, recorderFactoryFunc(func() (RecorderPCM, error) {
		return RecorderPCMDummy{}, nil
	}))
	assert.Len(t, RecorderFactories(), 3)
	recorder, err := NewRecorderAuto(ctx)
	require.NoError(t, err)
	assert.Equal(t, RecorderPCMDummy{}, recorder)

	// the last successful backend is tried first
	recorder, err = NewRecorderAuto(ctx)
	require.NoError(t, err)
	assert.Equal(t, RecorderPCMDummy{}, recorder)
}
