package composer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMic struct {
	denied  bool
	stream  chan []byte
	stopped bool
}

func (m *fakeMic) Start(ctx context.Context) (<-chan []byte, error) {
	if m.denied {
		return nil, errors.New("permission denied")
	}
	m.stream = make(chan []byte, 16)
	return m.stream, nil
}

func (m *fakeMic) Stop() {
	m.stopped = true
	if m.stream != nil {
		close(m.stream)
		m.stream = nil
	}
}

func TestRecorderDeniedStaysIdle(t *testing.T) {
	r := NewRecorder(&fakeMic{denied: true})

	err := r.Start(context.Background())
	require.Error(t, err)
	require.Equal(t, StateIdle, r.State())
	require.Equal(t, ErrMicDenied, r.LastError())
	require.Zero(t, r.Duration())

	_, _, _, ok := r.Result()
	require.False(t, ok)
}

func TestRecorderStartStopFinalizesBlob(t *testing.T) {
	mic := &fakeMic{}
	r := NewRecorder(mic)

	require.NoError(t, r.Start(context.Background()))
	require.Equal(t, StateRecording, r.State())
	require.Empty(t, r.LastError())

	mic.stream <- []byte("chunk-1 ")
	mic.stream <- []byte("chunk-2")

	r.Stop()
	require.True(t, mic.stopped)
	require.Equal(t, StateStopped, r.State())

	blob, url, _, ok := r.Result()
	require.True(t, ok)
	require.Equal(t, "chunk-1 chunk-2", string(blob))
	require.True(t, strings.HasPrefix(url, "mem://"))
}

func TestRecorderStopWhileIdleIsNoop(t *testing.T) {
	r := NewRecorder(&fakeMic{})
	r.Stop()
	require.Equal(t, StateIdle, r.State())
}

func TestRecorderRestartDiscardsPriorRecording(t *testing.T) {
	mic := &fakeMic{}
	r := NewRecorder(mic)

	require.NoError(t, r.Start(context.Background()))
	mic.stream <- []byte("old")
	r.Stop()

	require.NoError(t, r.Start(context.Background()))
	mic.stream <- []byte("new")
	r.Stop()

	blob, _, _, ok := r.Result()
	require.True(t, ok)
	require.Equal(t, "new", string(blob))
}

func TestRecorderClearReleases(t *testing.T) {
	mic := &fakeMic{}
	r := NewRecorder(mic)

	require.NoError(t, r.Start(context.Background()))
	mic.stream <- []byte("data")
	r.Stop()

	r.Clear()
	require.Equal(t, StateIdle, r.State())
	_, _, _, ok := r.Result()
	require.False(t, ok)
}

func TestAcceptRecordingCopiesIntoVoiceSlot(t *testing.T) {
	mic := &fakeMic{}
	r := NewRecorder(mic)
	c, _, _ := newTestComposer()

	require.NoError(t, r.Start(context.Background()))
	mic.stream <- []byte("voice data")
	r.Stop()

	require.True(t, c.AcceptRecording(r))
	require.NotNil(t, c.Voice())
	require.Equal(t, "voice data", string(c.Voice().Data))

	// Accept after Clear is refused.
	r.Clear()
	c2, _, _ := newTestComposer()
	require.False(t, c2.AcceptRecording(r))
	require.Nil(t, c2.Voice())
}
