package places

import (
	"context"
	"net/http"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
)

const (
	requestTimeout   = 10 * time.Second
	biasRadiusMeters = 50000
)

// Resolver turns free-form location text into a concrete place with
// coordinates. It runs the Places Autocomplete -> Place Details chain
// first, falling back to plain geocoding, and restricts everything to
// India.
type Resolver struct {
	client *maps.Client
	bias   *maps.LatLng
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBias biases autocomplete toward a point, typically the city the
// service operates in.
func WithBias(lat, lng float64) Option {
	return func(r *Resolver) {
		r.bias = &maps.LatLng{Lat: lat, Lng: lng}
	}
}

// NewResolver creates a resolver backed by the Google Maps APIs.
func NewResolver(apiKey string, opts ...Option) (*Resolver, error) {
	if apiKey == "" {
		return nil, NewMissingAPIKeyError()
	}

	client, err := maps.NewClient(
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
	)
	if err != nil {
		logx.WithError(err).Error("Failed to initialize Google Maps client")
		return nil, NewClientInitError(err)
	}

	r := &Resolver{client: client}
	for _, opt := range opts {
		opt(r)
	}

	logx.WithField("biased", r.bias != nil).Info("Places resolver initialized")
	return r, nil
}

// Resolve maps location text to a place. Text that matches nothing is
// (nil, nil); only transport-level trouble is an error.
func (r *Resolver) Resolve(ctx context.Context, text string) (*session.Location, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	// Autocomplete ranks fuzzy, partial input far better than plain
	// geocoding, so it goes first. Its failures only demote the lookup
	// to the fallback.
	if loc := r.viaAutocomplete(ctx, text); loc != nil {
		return loc, nil
	}

	logx.WithField("input", text).Debug("Falling back to geocoding")
	return r.viaGeocode(ctx, text)
}

func (r *Resolver) viaAutocomplete(ctx context.Context, text string) *session.Location {
	req := &maps.PlaceAutocompleteRequest{
		Input:      text,
		Language:   "en",
		Components: map[maps.Component][]string{maps.ComponentCountry: {"IN"}},
	}
	if r.bias != nil {
		req.Location = r.bias
		req.Radius = biasRadiusMeters
	}

	resp, err := r.client.PlaceAutocomplete(ctx, req)
	if err != nil {
		logx.WithField("input", text).WithError(err).Warn("Places autocomplete failed")
		return nil
	}
	if len(resp.Predictions) == 0 {
		return nil
	}

	best := resp.Predictions[0]
	details, err := r.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: best.PlaceID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskGeometry,
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskPlaceID,
			maps.PlaceDetailsFieldMaskTypes,
		},
	})
	if err != nil {
		logx.WithField("place_id", best.PlaceID).WithError(err).Warn("Place details lookup failed")
		return nil
	}

	logx.WithFields(logx.Fields{
		"input":   text,
		"address": details.FormattedAddress,
	}).Debug("Location resolved via autocomplete")

	return &session.Location{
		Address: details.FormattedAddress,
		Coordinates: session.Coordinates{
			Lat: details.Geometry.Location.Lat,
			Lng: details.Geometry.Location.Lng,
		},
		PlaceID: details.PlaceID,
		Name:    details.Name,
	}
}

func (r *Resolver) viaGeocode(ctx context.Context, text string) (*session.Location, error) {
	results, err := r.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:    text,
		Components: map[maps.Component]string{maps.ComponentCountry: "IN"},
	})
	if err != nil {
		logx.WithField("input", text).WithError(err).Error("Geocoding failed")
		return nil, NewResolutionFailedError(text, err)
	}
	if len(results) == 0 {
		logx.WithField("input", text).Warn("Could not resolve location")
		return nil, nil
	}

	first := results[0]
	name := ""
	if len(first.AddressComponents) > 0 {
		name = first.AddressComponents[0].LongName
	}

	return &session.Location{
		Address: first.FormattedAddress,
		Coordinates: session.Coordinates{
			Lat: first.Geometry.Location.Lat,
			Lng: first.Geometry.Location.Lng,
		},
		PlaceID: first.PlaceID,
		Name:    name,
	}, nil
}
