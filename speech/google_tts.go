package speech

import (
	"context"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
)

const synthesizeTimeout = 15 * time.Second

// voiceFor maps assistant languages onto Google TTS voice locales.
var voiceFor = map[session.Language]string{
	session.LanguageEnglish:   "en-US",
	session.LanguageTamil:     "ta-IN",
	session.LanguageMalayalam: "ml-IN",
}

// GoogleSynthesizer renders replies to MP3 with the Google Cloud
// Text-to-Speech API.
type GoogleSynthesizer struct {
	client       *texttospeech.Client
	speakingRate float64
}

// NewGoogleSynthesizer creates a synthesizer. With an empty credentials
// file it falls back to application default credentials.
func NewGoogleSynthesizer(ctx context.Context, credentialsFile string, speakingRate float64) (*GoogleSynthesizer, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		logx.WithError(err).Error("Failed to initialize text-to-speech client")
		return nil, NewClientInitError(err)
	}

	if speakingRate <= 0 {
		speakingRate = 1.0
	}

	logx.WithField("speaking_rate", speakingRate).Info("Text-to-speech client initialized")
	return &GoogleSynthesizer{
		client:       client,
		speakingRate: speakingRate,
	}, nil
}

// Close releases the underlying API client.
func (s *GoogleSynthesizer) Close() error {
	return s.client.Close()
}

// Synthesize renders text as MP3 audio in the given language's voice.
func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text string, lang session.Language) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, synthesizeTimeout)
	defer cancel()

	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: localeFor(lang),
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  s.speakingRate,
		},
	})
	if err != nil {
		logx.WithField("language", lang).WithError(err).Error("Speech synthesis failed")
		return nil, NewSynthesisFailedError(err)
	}

	logx.WithFields(logx.Fields{
		"language": lang,
		"bytes":    len(resp.AudioContent),
	}).Debug("Speech synthesized")
	return resp.AudioContent, nil
}

func localeFor(lang session.Language) string {
	if code, ok := voiceFor[lang]; ok {
		return code
	}
	return voiceFor[session.DefaultLanguage]
}
