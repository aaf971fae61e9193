package translate

import (
	"context"
	"strings"
	"time"

	gtranslate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
)

// Detection runs on every turn, so it gets a tighter budget than
// translation.
const (
	detectTimeout    = 5 * time.Second
	translateTimeout = 10 * time.Second
)

// GoogleTranslator detects languages and translates text through the
// Google Cloud Translation API. Detection results are clamped to the
// languages the assistant speaks; anything else resolves to the
// configured default so a turn never stalls on an exotic input.
type GoogleTranslator struct {
	client      *gtranslate.Client
	defaultLang session.Language
}

// NewGoogleTranslator creates a translator backed by the Translation API.
func NewGoogleTranslator(ctx context.Context, apiKey string, defaultLang session.Language) (*GoogleTranslator, error) {
	if apiKey == "" {
		return nil, NewMissingAPIKeyError()
	}

	client, err := gtranslate.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		logx.WithError(err).Error("Failed to initialize translation client")
		return nil, NewClientInitError(err)
	}

	if !defaultLang.Valid() {
		defaultLang = session.DefaultLanguage
	}

	logx.WithField("default_language", defaultLang).Info("Translation client initialized")
	return &GoogleTranslator{
		client:      client,
		defaultLang: defaultLang,
	}, nil
}

// Close releases the underlying API client.
func (t *GoogleTranslator) Close() error {
	return t.client.Close()
}

// Detect returns the language of the given text. Detection never fails
// a turn: API trouble and unsupported languages both resolve to the
// default language.
func (t *GoogleTranslator) Detect(ctx context.Context, text string) session.Language {
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	detections, err := t.client.DetectLanguage(ctx, []string{text})
	if err != nil {
		logx.WithError(err).Warn("Language detection failed, assuming default language")
		return t.defaultLang
	}
	if len(detections) == 0 || len(detections[0]) == 0 {
		return t.defaultLang
	}

	best := detections[0][0]
	lang := clampLanguage(best.Language)
	if lang == "" {
		logx.WithFields(logx.Fields{
			"detected":   best.Language.String(),
			"confidence": best.Confidence,
		}).Debug("Unsupported language detected, using default")
		return t.defaultLang
	}

	logx.WithFields(logx.Fields{
		"language":   lang,
		"confidence": best.Confidence,
	}).Debug("Language detected")
	return lang
}

// Translate converts text between two supported languages. Identical
// source and target is a no-op.
func (t *GoogleTranslator) Translate(ctx context.Context, text string, from, to session.Language) (string, error) {
	if from == to || strings.TrimSpace(text) == "" {
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, translateTimeout)
	defer cancel()

	translations, err := t.client.Translate(ctx, []string{text}, language.Make(string(to)), &gtranslate.Options{
		Source: language.Make(string(from)),
		Format: gtranslate.Text,
	})
	if err != nil {
		logx.WithFields(logx.Fields{
			"from": from,
			"to":   to,
		}).WithError(err).Error("Translation request failed")
		return "", NewTranslationFailedError(string(from), string(to), err)
	}
	if len(translations) == 0 {
		return "", NewEmptyResultError(string(from), string(to))
	}

	return translations[0].Text, nil
}

// clampLanguage maps a detected BCP 47 tag onto the closed set of
// supported languages, returning "" when it falls outside.
func clampLanguage(tag language.Tag) session.Language {
	code := tag.String()
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	lang := session.Language(strings.ToLower(code))
	if !lang.Valid() {
		return ""
	}
	return lang
}
