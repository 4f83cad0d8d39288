package speech

import (
	"context"
	"fmt"

	tts "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
)

// GoogleSynthesizer renders agent replies as MP3 via Google Cloud
// Text-to-Speech.
type GoogleSynthesizer struct {
	client   *tts.Client
	voice    string
	language string
}

func NewGoogleSynthesizer(ctx context.Context, credentialsFile, voice, language string) (*GoogleSynthesizer, error) {
	client, err := tts.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize text-to-speech client: %w", err)
	}
	return &GoogleSynthesizer{client: client, voice: voice, language: language}, nil
}

func (s *GoogleSynthesizer) Close() error {
	return s.client.Close()
}

func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: s.language,
			Name:         s.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	return resp.AudioContent, nil
}
