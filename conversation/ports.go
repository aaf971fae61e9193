package conversation

import (
	"context"

	"github.com/vaahana-ai/vaahana/session"
)

// Translator detects the language of user text and translates between
// the user's language and English, which the conversation flow runs in.
type Translator interface {
	// Detect returns the language of the text. Detection never fails
	// observably: implementations fall back to the default language.
	Detect(ctx context.Context, text string) session.Language

	// Translate converts text from one supported language to another.
	Translate(ctx context.Context, text string, from, to session.Language) (string, error)
}

// Transcription is the result of speech-to-text.
type Transcription struct {
	Text     string
	Language session.Language
}

// Transcriber converts spoken audio to text. The filename carries the
// container format hint the transcription backend needs.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (*Transcription, error)
}

// Synthesizer renders text to spoken audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, lang session.Language) ([]byte, error)
}

// LocationResolver turns free-form location text into a concrete place.
// It returns (nil, nil) when the text does not match any known place.
type LocationResolver interface {
	Resolve(ctx context.Context, text string) (*session.Location, error)
}

// RideProvider is the booking backend.
type RideProvider interface {
	CreateRide(ctx context.Context, phoneNumber string, pickup, drop *session.Location) (*session.RideBooking, error)
	CancelRide(ctx context.Context, rideID int64) error
	RideStatus(ctx context.Context, rideID int64) (*session.RideStatusInfo, error)
}

// AudioStore saves synthesized audio and returns a URL the client can
// fetch it from.
type AudioStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}
