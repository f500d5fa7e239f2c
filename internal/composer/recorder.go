package composer

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"
)

// ErrMicDenied is the fixed user-facing message shown when capture cannot
// start.
const ErrMicDenied = "Microphone access denied"

type RecorderState int

const (
	StateIdle RecorderState = iota
	StateRecording
	StateStopped
)

// Microphone abstracts the audio capture source. Start returns a channel of
// raw audio chunks that closes when capture stops.
type Microphone interface {
	Start(ctx context.Context) (<-chan []byte, error)
	Stop()
}

// Recorder is the voice-message state machine:
// idle -> recording -> stopped, or back to idle when capture is denied.
type Recorder struct {
	mic Microphone

	mu       sync.Mutex
	state    RecorderState
	lastErr  string
	chunks   [][]byte
	duration float64
	blob     []byte
	url      string
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewRecorder(mic Microphone) *Recorder {
	return &Recorder{mic: mic}
}

func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastError returns the message from a failed start, empty otherwise.
func (r *Recorder) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Recorder) Duration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

// Start requests capture. On denial the recorder stays idle with the fixed
// error message and no duration timer running.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state == StateRecording {
		r.mu.Unlock()
		return fmt.Errorf("already recording")
	}
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stream, err := r.mic.Start(ctx)
	if err != nil {
		cancel()
		r.mu.Lock()
		r.state = StateIdle
		r.lastErr = ErrMicDenied
		r.mu.Unlock()
		return fmt.Errorf("%s", ErrMicDenied)
	}

	r.mu.Lock()
	r.state = StateRecording
	r.lastErr = ""
	r.chunks = nil
	r.duration = 0
	r.blob = nil
	r.url = ""
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go r.collect(stream, done)
	return nil
}

func (r *Recorder) collect(stream <-chan []byte, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case chunk, ok := <-stream:
			if !ok {
				return
			}
			r.mu.Lock()
			r.chunks = append(r.chunks, chunk)
			r.mu.Unlock()
		case <-ticker.C:
			r.mu.Lock()
			if r.state != StateRecording {
				r.mu.Unlock()
				return
			}
			r.duration++
			r.mu.Unlock()
		}
	}
}

// Stop finalizes the chunks into one blob with a playable in-memory URL and
// leaves the recorder in the stopped-unreviewed state.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	r.state = StateStopped
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	r.mic.Stop()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.blob = bytes.Join(r.chunks, nil)
	r.url = fmt.Sprintf("mem://recording-%d", time.Now().UnixNano())
	r.chunks = nil
}

// Result exposes the stopped recording. ok is false while recording, after
// Clear, or before anything was captured.
func (r *Recorder) Result() (blob []byte, url string, duration float64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateStopped {
		return nil, "", 0, false
	}
	return r.blob, r.url, r.duration, true
}

// Clear releases the in-memory URL and discards the blob.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateIdle
	r.lastErr = ""
	r.blob = nil
	r.url = ""
	r.duration = 0
	r.chunks = nil
}
