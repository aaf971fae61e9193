package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
)

// defaultActionGroup is used when an invocation arrives without one.
const defaultActionGroup = "safe_safari_action_group"

// Session attribute keys the agent carries resolved locations in
// between action invocations.
const (
	attrPickupLocation = "pickup_location"
	attrDropLocation   = "drop_location"
)

// Parameter is one named value in an action invocation.
type Parameter struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// BodyContent holds the parameters delivered under one content type of
// the request body.
type BodyContent struct {
	Properties []Parameter `json:"properties"`
}

// RequestBody carries parameters that arrive through the action's
// OpenAPI request body instead of the parameters list.
type RequestBody struct {
	Content map[string]BodyContent `json:"content"`
}

// ActionRequest is the invocation event a Bedrock agent delivers to its
// action group executor.
type ActionRequest struct {
	MessageVersion    string            `json:"messageVersion,omitempty"`
	ActionGroup       string            `json:"actionGroup"`
	APIPath           string            `json:"apiPath"`
	HTTPMethod        string            `json:"httpMethod,omitempty"`
	Parameters        []Parameter       `json:"parameters,omitempty"`
	RequestBody       *RequestBody      `json:"requestBody,omitempty"`
	SessionAttributes map[string]string `json:"sessionAttributes,omitempty"`
}

// params flattens the invocation's named values into a map. The
// parameters list wins; agents that route values through the request
// body land in the application/json content properties instead.
func (r *ActionRequest) params() map[string]string {
	list := r.Parameters
	if len(list) == 0 && r.RequestBody != nil {
		if content, ok := r.RequestBody.Content["application/json"]; ok {
			list = content.Properties
		}
	}

	out := make(map[string]string, len(list))
	for _, p := range list {
		if p.Name != "" {
			out[p.Name] = p.Value
		}
	}
	return out
}

// BodyPayload wraps the JSON-encoded body of an action result.
type BodyPayload struct {
	Body string `json:"body"`
}

// ActionResult is the HTTP-shaped outcome of one action.
type ActionResult struct {
	ActionGroup    string                 `json:"actionGroup"`
	APIPath        string                 `json:"apiPath"`
	HTTPMethod     string                 `json:"httpMethod"`
	HTTPStatusCode int                    `json:"httpStatusCode"`
	ResponseBody   map[string]BodyPayload `json:"responseBody"`
}

// ActionResponse is the executor's reply in the agent message format.
// SessionAttributes is only set when the action changed them; an absent
// field leaves the agent's attribute set untouched.
type ActionResponse struct {
	MessageVersion    string            `json:"messageVersion"`
	Response          ActionResult      `json:"response"`
	SessionAttributes map[string]string `json:"sessionAttributes,omitempty"`
}

// LocationResolver is the slice of the places resolver the router uses.
type LocationResolver interface {
	Resolve(ctx context.Context, text string) (*session.Location, error)
}

// RideService is the slice of the ride provider the router uses.
type RideService interface {
	CreateRide(ctx context.Context, phoneNumber string, pickup, drop *session.Location) (*session.RideBooking, error)
	CancelRide(ctx context.Context, rideID int64) error
	RideStatus(ctx context.Context, rideID int64) (*session.RideStatusInfo, error)
}

// Router dispatches Bedrock agent action invocations onto the booking
// stack, standing in for a Lambda action group executor.
type Router struct {
	locations LocationResolver
	rides     RideService
}

// NewRouter creates an action router over the given backends.
func NewRouter(locations LocationResolver, rides RideService) *Router {
	return &Router{
		locations: locations,
		rides:     rides,
	}
}

// Dispatch routes one invocation to its handler. Failures never surface
// as Go errors: the agent consumes them as 400 results with a coded
// error body.
func (r *Router) Dispatch(ctx context.Context, req *ActionRequest) (resp *ActionResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			logx.WithFields(logx.Fields{
				"api_path": req.APIPath,
				"panic":    rec,
			}).Error("Agent action handler panicked")
			resp = errorResponse(req, fmt.Sprintf("%v", rec), "HANDLER_ERROR")
		}
	}()

	params := req.params()

	logx.WithFields(logx.Fields{
		"action_group": req.ActionGroup,
		"api_path":     req.APIPath,
		"param_count":  len(params),
	}).Info("Dispatching agent action")

	switch req.APIPath {
	case "/resolve-location":
		return r.resolveLocation(ctx, req, params)
	case "/create-ride":
		return r.createRide(ctx, req, params)
	case "/get-ride-status":
		return r.rideStatus(ctx, req, params)
	case "/cancel-ride":
		return r.cancelRide(ctx, req, params)
	default:
		logx.WithField("api_path", req.APIPath).Warn("Unknown agent action path")
		return errorResponse(req, fmt.Sprintf("Unknown API path: %s", req.APIPath), "UNKNOWN_ACTION")
	}
}

func (r *Router) resolveLocation(ctx context.Context, req *ActionRequest, params map[string]string) *ActionResponse {
	locationText := strings.TrimSpace(params["location_text"])
	if locationText == "" {
		return errorResponse(req, "Location text is required", "MISSING_PARAMETER")
	}

	// The session attribute key is derived from the type, so anything
	// unrecognized lands on pickup.
	locationType := params["type"]
	if locationType != "drop" {
		locationType = "pickup"
	}

	logx.WithFields(logx.Fields{
		"input": locationText,
		"type":  locationType,
	}).Debug("Resolving location for agent")

	loc, err := r.locations.Resolve(ctx, locationText)
	if err != nil {
		logx.WithField("input", locationText).WithError(err).Error("Agent location resolution failed")
		return errorResponse(req, err.Error(), "LOCATION_RESOLUTION_ERROR")
	}
	if loc == nil {
		return errorResponse(req, fmt.Sprintf("Could not resolve location: %s", locationText), "LOCATION_NOT_FOUND")
	}

	// Write the resolved place back as a session attribute so the
	// create-ride action can read it on a later invocation.
	attrs := cloneAttributes(req.SessionAttributes)
	if encoded, err := json.Marshal(loc); err == nil {
		attrs[locationType+"_location"] = string(encoded)
	}

	body := map[string]any{
		"type":        locationType,
		"location":    loc.Address,
		"coordinates": loc.Coordinates,
		"place_id":    loc.PlaceID,
		"success":     true,
	}
	return successResponse(req, body, attrs)
}

func (r *Router) createRide(ctx context.Context, req *ActionRequest, params map[string]string) *ActionResponse {
	phone := strings.TrimSpace(params["phone_number"])
	pickup := locationAttribute(req.SessionAttributes, attrPickupLocation)
	drop := locationAttribute(req.SessionAttributes, attrDropLocation)

	var missing []string
	if phone == "" {
		missing = append(missing, "phone_number")
	}
	if pickup == nil {
		missing = append(missing, attrPickupLocation)
	}
	if drop == nil {
		missing = append(missing, attrDropLocation)
	}
	if len(missing) > 0 {
		return errorResponse(req, "Missing required fields: "+strings.Join(missing, ", "), "MISSING_REQUIRED_DATA")
	}

	booking, err := r.rides.CreateRide(ctx, phone, pickup, drop)
	if err != nil {
		logx.WithError(err).Error("Agent ride creation failed")
		return errorResponse(req, "Failed to create ride: "+err.Error(), "RIDE_CREATION_FAILED")
	}

	logx.WithFields(logx.Fields{
		"ride_id": booking.RideID,
		"pickup":  pickup.Address,
		"drop":    drop.Address,
	}).Info("Agent created ride")

	body := map[string]any{
		"success": true,
		"ride_id": booking.RideID,
		"message": booking.Message,
		"details": map[string]string{
			"pickup": pickup.Address,
			"drop":   drop.Address,
			"phone":  phone,
		},
	}
	return successResponse(req, body, nil)
}

func (r *Router) rideStatus(ctx context.Context, req *ActionRequest, params map[string]string) *ActionResponse {
	rideID, failure := requireRideID(req, params)
	if failure != nil {
		return failure
	}

	info, err := r.rides.RideStatus(ctx, rideID)
	if err != nil {
		logx.WithField("ride_id", rideID).WithError(err).Error("Agent ride status lookup failed")
		return errorResponse(req, "Failed to get ride status: "+err.Error(), "RIDE_STATUS_ERROR")
	}

	return successResponse(req, info, nil)
}

func (r *Router) cancelRide(ctx context.Context, req *ActionRequest, params map[string]string) *ActionResponse {
	rideID, failure := requireRideID(req, params)
	if failure != nil {
		return failure
	}

	if err := r.rides.CancelRide(ctx, rideID); err != nil {
		logx.WithField("ride_id", rideID).WithError(err).Error("Agent ride cancellation failed")
		return errorResponse(req, "Failed to cancel ride: "+err.Error(), "RIDE_CANCELLATION_FAILED")
	}

	logx.WithField("ride_id", rideID).Info("Agent cancelled ride")

	body := map[string]any{
		"success": true,
		"message": "Your ride has been cancelled",
		"ride_id": rideID,
	}
	return successResponse(req, body, nil)
}

// requireRideID pulls a numeric ride_id from the parameters, or returns
// the error response the handler should hand back.
func requireRideID(req *ActionRequest, params map[string]string) (int64, *ActionResponse) {
	raw := strings.TrimSpace(params["ride_id"])
	if raw == "" {
		return 0, errorResponse(req, "Ride ID is required", "MISSING_PARAMETER")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errorResponse(req, fmt.Sprintf("Ride ID must be numeric: %s", raw), "INVALID_PARAMETER")
	}
	return id, nil
}

// locationAttribute decodes a location stored in the agent's session
// attributes. Anything absent or undecodable counts as missing.
func locationAttribute(attrs map[string]string, key string) *session.Location {
	raw, ok := attrs[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}

	var loc session.Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		logx.WithField("attribute", key).WithError(err).Warn("Undecodable location attribute")
		return nil
	}
	if loc.Address == "" {
		return nil
	}
	return &loc
}

func cloneAttributes(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs)+1)
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func successResponse(req *ActionRequest, body any, attrs map[string]string) *ActionResponse {
	return buildResponse(req, http.StatusOK, body, attrs)
}

func errorResponse(req *ActionRequest, message, code string) *ActionResponse {
	body := map[string]string{
		"error":      message,
		"error_code": code,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	return buildResponse(req, http.StatusBadRequest, body, nil)
}

func buildResponse(req *ActionRequest, status int, body any, attrs map[string]string) *ActionResponse {
	group := req.ActionGroup
	if group == "" {
		group = defaultActionGroup
	}
	method := req.HTTPMethod
	if method == "" {
		method = "POST"
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		// Bodies are plain maps and structs, so this should not happen.
		logx.WithField("api_path", req.APIPath).WithError(err).Error("Failed to encode action response body")
		encoded = []byte(`{"error":"response encoding failed","error_code":"ENCODING_ERROR"}`)
		status = http.StatusBadRequest
	}

	return &ActionResponse{
		MessageVersion: "1.0",
		Response: ActionResult{
			ActionGroup:    group,
			APIPath:        req.APIPath,
			HTTPMethod:     method,
			HTTPStatusCode: status,
			ResponseBody: map[string]BodyPayload{
				"application/json": {Body: string(encoded)},
			},
		},
		SessionAttributes: attrs,
	}
}
