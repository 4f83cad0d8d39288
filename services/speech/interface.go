package speech

import "context"

// Transcriber turns one turn of caller audio into text. An empty
// transcript with a nil error means the audio carried no speech.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer turns the agent's reply text into playable audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
