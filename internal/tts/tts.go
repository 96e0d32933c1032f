// Package tts defines the speech output port. Bot messages are spoken
// through a Synthesizer when the caller asked for audio replies.
package tts

import "context"

// Opts controls synthesis behavior.
type Opts struct {
	// Voice overrides the configured voice model.
	Voice string
}

// Speech is synthesized audio.
type Speech struct {
	// Audio is a complete WAV file.
	Audio []byte

	// ContentType is the MIME type of Audio ("audio/wav").
	ContentType string

	SampleRate int
	Channels   int
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts Opts) (*Speech, error)
	Close() error
}

// Nop is a Synthesizer that produces no audio. It is used when speech
// output is disabled.
type Nop struct{}

// Synthesize returns a nil Speech.
func (Nop) Synthesize(context.Context, string, Opts) (*Speech, error) { return nil, nil }

// Close implements Synthesizer.
func (Nop) Close() error { return nil }
