// Package audio captures microphone input and encodes PCM for upload
package audio

import (
	"context"
	"sync"

	"github.com/gordonklaus/portaudio"

	apperrors "github.com/jdcastano06/FlowNote/internal/errors"
	"github.com/jdcastano06/FlowNote/internal/trace"
)

const framesPerBuffer = 1024

// Capturer records mono 16-bit PCM from the default input device and
// buffers it until flushed.
type Capturer struct {
	sampleRate int

	mu      sync.Mutex
	samples []int16

	stream   *portaudio.Stream
	stopOnce sync.Once
	stopErr  error
}

// NewCapturer creates a capturer at the given sample rate.
func NewCapturer(sampleRate int) *Capturer {
	return &Capturer{sampleRate: sampleRate}
}

// SampleRate returns the configured capture rate.
func (c *Capturer) SampleRate() int {
	return c.sampleRate
}

// Start initializes portaudio and begins streaming from the default
// microphone. Call Stop to release the device.
func (c *Capturer) Start(ctx context.Context) error {
	log := trace.Logger(ctx)

	if err := portaudio.Initialize(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "initialize audio subsystem")
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), framesPerBuffer, c.callback)
	if err != nil {
		_ = portaudio.Terminate()
		return apperrors.Wrap(err, apperrors.CodeInternal, "open default input stream")
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return apperrors.Wrap(err, apperrors.CodeInternal, "start input stream")
	}

	c.stream = stream
	log.Info("microphone capture started", "sample_rate", c.sampleRate)
	return nil
}

func (c *Capturer) callback(in []int16) {
	c.mu.Lock()
	c.samples = append(c.samples, in...)
	c.mu.Unlock()
}

// Flush returns the samples buffered since the last flush and clears the
// buffer.
func (c *Capturer) Flush() []int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.samples
	c.samples = nil
	return out
}

// Buffered returns how many samples are currently waiting.
func (c *Capturer) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// Stop halts the stream and releases the device. Safe to call more than
// once; only the first call does the work.
func (c *Capturer) Stop() error {
	c.stopOnce.Do(func() {
		if c.stream != nil {
			if err := c.stream.Stop(); err != nil {
				c.stopErr = apperrors.Wrap(err, apperrors.CodeInternal, "stop input stream")
			}
			if err := c.stream.Close(); err != nil && c.stopErr == nil {
				c.stopErr = apperrors.Wrap(err, apperrors.CodeInternal, "close input stream")
			}
		}
		if err := portaudio.Terminate(); err != nil && c.stopErr == nil {
			c.stopErr = apperrors.Wrap(err, apperrors.CodeInternal, "terminate audio subsystem")
		}
	})
	return c.stopErr
}
