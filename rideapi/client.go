package rideapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
)

const defaultTimeout = 10 * time.Second

// Config configures the ride provider client.
type Config struct {
	BaseURL   string        // provider API root, e.g. https://api.example.com
	Timeout   time.Duration // per-request timeout
	PhoneCode string        // country calling code sent with bookings
}

// Client calls the ride provider's admin API to create, cancel and
// check rides.
type Client struct {
	baseURL   string
	phoneCode string
	http      *http.Client
}

// NewClient creates a ride provider client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PhoneCode == "" {
		cfg.PhoneCode = "+91"
	}

	logx.WithFields(logx.Fields{
		"base_url": cfg.BaseURL,
		"timeout":  cfg.Timeout,
	}).Debug("Ride API client created")

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		phoneCode: cfg.PhoneCode,
		http:      &http.Client{Timeout: cfg.Timeout},
	}
}

// The provider's admin endpoint expects every field even when it has
// nothing useful to say, hence the "N/A" distance and duration.
type createRidePayload struct {
	PhoneCode            string  `json:"phone_code"`
	PhoneNumber          string  `json:"phone_number"`
	OriginLatitude       float64 `json:"origin_latitude"`
	OriginLongitude      float64 `json:"origin_longitude"`
	DestinationLatitude  float64 `json:"destination_latitude"`
	DestinationLongitude float64 `json:"destination_longitude"`
	PickupLocation       string  `json:"pickup_location"`
	DropLocation         string  `json:"drop_location"`
	Distance             string  `json:"distance"`
	Duration             string  `json:"duration"`
}

type createRideResponse struct {
	RideID  int64  `json:"ride_id"`
	Message string `json:"message"`
}

type rideStatusResponse struct {
	RideID int64  `json:"ride_id"`
	Status string `json:"status"`
	Driver *struct {
		Name          string `json:"name"`
		Phone         string `json:"phone"`
		VehicleNumber string `json:"vehicle_number"`
	} `json:"driver"`
	ETA string `json:"eta"`
}

// CreateRide books a ride for the given phone number between two
// resolved locations.
func (c *Client) CreateRide(ctx context.Context, phone string, pickup, drop *session.Location) (*session.RideBooking, error) {
	payload := createRidePayload{
		PhoneCode:            c.phoneCode,
		PhoneNumber:          phone,
		OriginLatitude:       pickup.Coordinates.Lat,
		OriginLongitude:      pickup.Coordinates.Lng,
		DestinationLatitude:  drop.Coordinates.Lat,
		DestinationLongitude: drop.Coordinates.Lng,
		PickupLocation:       pickup.Address,
		DropLocation:         drop.Address,
		Distance:             "N/A",
		Duration:             "N/A",
	}

	logx.WithFields(logx.Fields{
		"pickup": pickup.Address,
		"drop":   drop.Address,
	}).Info("Creating ride booking")

	var result createRideResponse
	if err := c.postJSON(ctx, "/map/admin/create-admin-ride", payload, &result); err != nil {
		logx.WithError(err).Error("Ride creation failed")
		return nil, err
	}

	if result.Message == "" {
		result.Message = "Ride created successfully"
	}

	logx.WithField("ride_id", result.RideID).Info("Ride created")
	return &session.RideBooking{
		RideID:  result.RideID,
		Message: result.Message,
	}, nil
}

// CancelRide cancels an existing ride.
func (c *Client) CancelRide(ctx context.Context, rideID int64) error {
	logx.WithField("ride_id", rideID).Info("Cancelling ride")

	if err := c.postJSON(ctx, fmt.Sprintf("/map/admin/cancel-ride/%d", rideID), nil, nil); err != nil {
		logx.WithField("ride_id", rideID).WithError(err).Error("Ride cancellation failed")
		return NewCancellationError(rideID, err)
	}

	logx.WithField("ride_id", rideID).Info("Ride cancelled")
	return nil
}

// RideStatus fetches the live status of a ride.
func (c *Client) RideStatus(ctx context.Context, rideID int64) (*session.RideStatusInfo, error) {
	var payload rideStatusResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/map/admin/ride-status/%d", rideID), &payload); err != nil {
		logx.WithField("ride_id", rideID).WithError(err).Warn("Ride status check failed")
		return nil, NewStatusUnavailableError(rideID, err)
	}

	info := &session.RideStatusInfo{
		RideID: payload.RideID,
		Status: session.RideStatus(payload.Status),
		ETA:    payload.ETA,
	}
	if info.RideID == 0 {
		info.RideID = rideID
	}
	if payload.Driver != nil {
		info.Driver = &session.Driver{
			Name:          payload.Driver.Name,
			Phone:         payload.Driver.Phone,
			VehicleNumber: payload.Driver.VehicleNumber,
		}
	}
	return info, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return NewGeneralError(fmt.Errorf("encoding request: %w", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return NewGeneralError(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return NewGeneralError(err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logx.WithFields(logx.Fields{
			"status_code": resp.StatusCode,
			"path":        req.URL.Path,
			"body":        string(body),
		}).Error("Ride API returned error status")
		return NewHTTPError(resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewGeneralError(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// classifyTransportError separates timeouts from connection trouble;
// the user-facing failure reason differs between the two.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}
