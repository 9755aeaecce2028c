package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// convertAudio transcribes an audio file. ffmpeg first resamples to the
// 16 kHz mono WAV whisper expects, then whisper-cli does the transcription
// with greedy decoding and voice activity detection to skip silence.
func (s *Service) convertAudio(ctx context.Context, path string) (*Result, error) {
	wav, cleanup, err := s.resampleToWav(ctx, path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return s.transcribe(ctx, wav)
}

// convertVideo extracts the audio track from a video file and transcribes it.
func (s *Service) convertVideo(ctx context.Context, path string) (*Result, error) {
	wav, cleanup, err := s.resampleToWav(ctx, path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return s.transcribe(ctx, wav)
}

// resampleToWav converts any media input to 16 kHz mono PCM WAV.
func (s *Service) resampleToWav(ctx context.Context, path string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "corpus-media-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	wav := filepath.Join(tmpDir, "audio.wav")
	_, err = s.runner.Run(ctx, s.ffmpeg,
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		wav)
	if err != nil {
		cleanup()
		return "", nil, err
	}

	return wav, cleanup, nil
}

// transcribe runs whisper-cli over a prepared WAV file.
func (s *Service) transcribe(ctx context.Context, wav string) (*Result, error) {
	s.logger.Debug("transcribing audio", "model", s.whisperModel)

	out, err := s.runner.Run(ctx, s.whisper,
		"-m", s.whisperModel,
		"-f", wav,
		"--no-timestamps",
		"--no-prints",
		"--beam-size", "1",
		"--vad",
		"--vad-model", s.vadModel,
		"--language", "en")
	if err != nil {
		return nil, err
	}

	text := normalizeTranscript(string(out))
	if text == "" {
		return nil, fmt.Errorf("%w: no speech detected", ErrNoText)
	}

	return &Result{Text: text}, nil
}

// normalizeTranscript collapses whisper's line-per-segment output into a
// single space-joined transcript.
func normalizeTranscript(raw string) string {
	var parts []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
