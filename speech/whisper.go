package speech

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/vaahana-ai/vaahana/conversation"
	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
)

// MaxAudioBytes is the Whisper API upload limit.
const MaxAudioBytes = 25 << 20

const transcribeTimeout = 60 * time.Second

// Formats the Whisper API accepts.
var supportedFormats = map[string]bool{
	"mp3":  true,
	"mp4":  true,
	"mpeg": true,
	"mpga": true,
	"m4a":  true,
	"wav":  true,
	"webm": true,
	"ogg":  true,
	"flac": true,
}

// WhisperTranscriber converts spoken audio to text with the OpenAI
// Whisper API. Whisper detects the spoken language itself; the result
// is normalized onto the assistant's supported set.
type WhisperTranscriber struct {
	client openai.Client
	model  string
}

// NewWhisperTranscriber creates a transcriber backed by the Whisper API.
func NewWhisperTranscriber(apiKey, model string) (*WhisperTranscriber, error) {
	if apiKey == "" {
		return nil, NewMissingAPIKeyError()
	}
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}

	logx.WithField("model", model).Info("Whisper transcriber initialized")
	return &WhisperTranscriber{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Transcribe converts an audio recording to text, returning the
// transcript together with the language Whisper heard.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (*conversation.Transcription, error) {
	if err := ValidateAudio(audio, filename); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	// verbose_json carries the detected language alongside the text.
	var verbose struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	_, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(audio), filepath.Base(filename), contentTypeFor(filename)),
		Model:          openai.AudioModel(w.model),
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	}, option.WithResponseBodyInto(&verbose))
	if err != nil {
		logx.WithError(err).Error("Whisper transcription failed")
		return nil, NewTranscriptionFailedError(err)
	}

	lang := session.NormalizeLanguage(verbose.Language)
	logx.WithFields(logx.Fields{
		"language": lang,
		"chars":    len(verbose.Text),
	}).Info("Audio transcribed")

	return &conversation.Transcription{
		Text:     strings.TrimSpace(verbose.Text),
		Language: lang,
	}, nil
}

// ValidateAudio rejects uploads the Whisper API would refuse anyway,
// before any bytes leave the process.
func ValidateAudio(audio []byte, filename string) error {
	if len(audio) == 0 {
		return NewEmptyAudioError()
	}
	if len(audio) > MaxAudioBytes {
		return NewAudioTooLargeError(len(audio))
	}
	ext := audioExt(filename)
	if !supportedFormats[ext] {
		return NewUnsupportedFormatError(ext)
	}
	return nil
}

func audioExt(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

func contentTypeFor(filename string) string {
	switch audioExt(filename) {
	case "mp3", "mpeg", "mpga":
		return "audio/mpeg"
	case "mp4", "m4a":
		return "audio/mp4"
	case "wav":
		return "audio/wav"
	case "webm":
		return "audio/webm"
	case "ogg":
		return "audio/ogg"
	case "flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
