package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	gspeech "cloud.google.com/go/speech/apiv1"
	"google.golang.org/api/option"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"
)

// MaxAudioBytes bounds one turn of caller audio (conservative buffer).
const MaxAudioBytes = 5 * 1024 * 1024

// GoogleTranscriber transcribes caller turns with Google Cloud
// Speech-to-Text. Uploaded audio is normalized to mono LINEAR16 at the
// configured sample rate through ffmpeg before recognition.
type GoogleTranscriber struct {
	client     *gspeech.Client
	language   string
	sampleRate int
}

func NewGoogleTranscriber(ctx context.Context, credentialsFile, language string, sampleRate int) (*GoogleTranscriber, error) {
	client, err := gspeech.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &GoogleTranscriber{client: client, language: language, sampleRate: sampleRate}, nil
}

func (t *GoogleTranscriber) Close() error {
	return t.client.Close()
}

// Transcribe converts one turn of audio to text. Recognition failures
// return an error; speech-free audio returns "" without one.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) > MaxAudioBytes {
		return "", fmt.Errorf("audio exceeds %d byte limit", MaxAudioBytes)
	}

	converted, err := normalizeAudio(audio, t.sampleRate)
	if err != nil {
		return "", err
	}

	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(t.sampleRate),
			LanguageCode:      t.language,
			AudioChannelCount: 1, // Mono
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: converted,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		for _, alt := range result.Alternatives {
			transcript.WriteString(alt.Transcript + " ")
		}
	}
	return strings.TrimSpace(transcript.String()), nil
}

// normalizeAudio runs the uploaded bytes through ffmpeg to produce the
// mono PCM the recognizer expects, whatever format the browser
// recorded in.
func normalizeAudio(audio []byte, sampleRate int) ([]byte, error) {
	tempInput, err := os.CreateTemp("", "audio-in-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tempInput.Name())
	defer tempInput.Close()

	if _, err := io.Copy(tempInput, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("failed to save audio: %w", err)
	}

	tempOutput, err := os.CreateTemp("", "audio-out-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create output temp file: %w", err)
	}
	defer os.Remove(tempOutput.Name())
	defer tempOutput.Close()

	if err := convertAudio(tempInput.Name(), tempOutput.Name(), sampleRate); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(tempOutput.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read converted audio: %w", err)
	}

	header, err := parseWaveHeader(data)
	if err != nil {
		return nil, err
	}
	if header.AudioFormat != 1 || header.NumChannels != 1 || int(header.SampleRate) != sampleRate {
		return nil, fmt.Errorf("unexpected converted format: fmt=%d ch=%d rate=%d",
			header.AudioFormat, header.NumChannels, header.SampleRate)
	}
	return data, nil
}

func convertAudio(inputPath, outputPath string, sampleRate int) error {
	_, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in system PATH: %v", err)
	}

	cmd := exec.Command("ffmpeg",
		"-y",
		"-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %s", stderr.String())
	}
	return nil
}

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

func parseWaveHeader(data []byte) (*waveHeader, error) {
	if len(data) < 44 {
		return nil, errors.New("invalid WAV header length")
	}

	var header waveHeader
	buf := bytes.NewReader(data)
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	return &header, nil
}
