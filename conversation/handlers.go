package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vaahana-ai/vaahana/pkg/errx"
	"github.com/vaahana-ai/vaahana/pkg/logx"
	"github.com/vaahana-ai/vaahana/session"
)

// dispatch advances the state machine for one English-pivot input and
// returns the English reply. Handler trouble never escapes: the reply
// falls back to a state-specific apology and the state stays put.
func (o *Orchestrator) dispatch(ctx context.Context, input string, rec *session.Record) (reply string) {
	state := rec.State
	defer func() {
		if r := recover(); r != nil {
			logx.WithFields(logx.Fields{
				"session_id": rec.SessionID,
				"state":      state,
				"panic":      r,
			}).Error("State handler panicked")
			reply = respGenericError
		}
	}()

	var err error
	switch state {
	case session.StateGreeting:
		reply, err = o.handleGreeting(ctx, rec)
	case session.StateAskingPickup:
		reply, err = o.handlePickup(ctx, input, rec)
	case session.StateAskingDrop:
		reply, err = o.handleDrop(ctx, input, rec)
	case session.StateAskingPhone, session.StateConfirmingRide:
		reply, err = o.handlePhoneAndBooking(ctx, input, rec)
	case session.StateRideCreated:
		reply, err = o.handlePostRide(ctx, input, rec)
	case session.StateCompleted:
		// A finished conversation starts over.
		reply, err = o.handleGreeting(ctx, rec)
	default:
		logx.WithFields(logx.Fields{
			"session_id": rec.SessionID,
			"state":      state,
		}).Warn("Unknown conversation state, restarting from greeting")
		reply, err = o.handleGreeting(ctx, rec)
	}
	if err != nil {
		logx.WithError(err).WithFields(logx.Fields{
			"session_id": rec.SessionID,
			"state":      state,
		}).Error("State handler failed")
		return fallbackFor(state)
	}
	return reply
}

// fallbackFor is the apology used when the handler for a state fails.
func fallbackFor(state session.State) string {
	switch state {
	case session.StateAskingPickup:
		return respPickupFallback
	case session.StateAskingDrop:
		return respDropFallback
	case session.StateAskingPhone, session.StateConfirmingRide:
		return respPhoneFallback
	case session.StateRideCreated:
		return respPostRideFallback
	default:
		return respGreetingFallback
	}
}

// nextActionFor names the input the client should collect next.
func nextActionFor(state session.State) string {
	switch state {
	case session.StateGreeting:
		return "provide_greeting"
	case session.StateAskingPickup:
		return "provide_pickup_location"
	case session.StateAskingDrop:
		return "provide_drop_location"
	case session.StateAskingPhone:
		return "provide_phone_number"
	case session.StateConfirmingRide:
		return "confirm_ride"
	case session.StateRideCreated:
		return "ride_management"
	case session.StateCompleted:
		return "new_booking"
	}
	return ""
}

// ============================================================================
// State handlers
// ============================================================================

func (o *Orchestrator) handleGreeting(ctx context.Context, rec *session.Record) (string, error) {
	if _, err := o.sessions.SetState(ctx, rec.SessionID, session.StateAskingPickup); err != nil {
		return "", err
	}
	rec.State = session.StateAskingPickup
	return respWelcome, nil
}

func (o *Orchestrator) handlePickup(ctx context.Context, input string, rec *session.Record) (string, error) {
	loc, err := o.locations.Resolve(ctx, input)
	if err != nil {
		return "", err
	}
	if loc == nil {
		return respPickupNotFound, nil
	}
	if _, err := o.sessions.SetPickup(ctx, rec.SessionID, loc); err != nil {
		return "", err
	}
	if _, err := o.sessions.SetState(ctx, rec.SessionID, session.StateAskingDrop); err != nil {
		return "", err
	}
	rec.Pickup = loc
	rec.State = session.StateAskingDrop
	logx.WithFields(logx.Fields{
		"session_id": rec.SessionID,
		"address":    loc.Address,
	}).Info("Pickup location set")
	return fmt.Sprintf(respPickupSet, loc.Address), nil
}

func (o *Orchestrator) handleDrop(ctx context.Context, input string, rec *session.Record) (string, error) {
	loc, err := o.locations.Resolve(ctx, input)
	if err != nil {
		return "", err
	}
	if loc == nil {
		return respDropNotFound, nil
	}
	if _, err := o.sessions.SetDrop(ctx, rec.SessionID, loc); err != nil {
		return "", err
	}
	if _, err := o.sessions.SetState(ctx, rec.SessionID, session.StateAskingPhone); err != nil {
		return "", err
	}
	rec.Drop = loc
	rec.State = session.StateAskingPhone
	logx.WithFields(logx.Fields{
		"session_id": rec.SessionID,
		"address":    loc.Address,
	}).Info("Drop location set")
	return fmt.Sprintf(respDropSet, loc.Address), nil
}

// handlePhoneAndBooking collects the phone number and immediately books
// the ride. A provider failure keeps the session in the phone state
// with the number already saved, so the user can simply try again.
func (o *Orchestrator) handlePhoneAndBooking(ctx context.Context, input string, rec *session.Record) (string, error) {
	phone, ok := extractPhoneNumber(input)
	if !ok {
		return respPhoneInvalid, nil
	}

	if _, err := o.sessions.SetPhoneNumber(ctx, rec.SessionID, phone); err != nil {
		return "", err
	}
	rec.PhoneNumber = phone

	booking, err := o.createBooking(ctx, rec)
	if err != nil {
		logx.WithError(err).WithField("session_id", rec.SessionID).Error("Ride booking failed")
		return fmt.Sprintf(respRideFailed, bookingFailureReason(err)), nil
	}

	details := &session.RideDetails{
		RideID:      booking.RideID,
		Message:     booking.Message,
		Pickup:      rec.Pickup,
		Drop:        rec.Drop,
		PhoneNumber: rec.PhoneNumber,
	}
	if _, err := o.sessions.SetRideDetails(ctx, rec.SessionID, details); err != nil {
		return "", err
	}
	if _, err := o.sessions.SetState(ctx, rec.SessionID, session.StateRideCreated); err != nil {
		return "", err
	}
	rec.RideDetails = details
	rec.State = session.StateRideCreated
	logx.WithFields(logx.Fields{
		"session_id": rec.SessionID,
		"ride_id":    booking.RideID,
	}).Info("Ride created")
	return fmt.Sprintf(respRideCreated, booking.RideID), nil
}

// createBooking verifies the collected details and calls the provider.
func (o *Orchestrator) createBooking(ctx context.Context, rec *session.Record) (*session.RideBooking, error) {
	if rec.Pickup == nil || rec.Drop == nil || rec.PhoneNumber == "" {
		return nil, errMissingBookingInfo()
	}
	return o.rides.CreateRide(ctx, rec.PhoneNumber, rec.Pickup, rec.Drop)
}

// bookingFailureReason extracts the human-readable reason used in the
// booking failure reply.
func bookingFailureReason(err error) string {
	var typed *errx.Error
	if errors.As(err, &typed) {
		return typed.Message
	}
	return err.Error()
}

// handlePostRide serves the menu once a ride exists. Status and cancel
// only act when the session still carries a ride ID; anything the
// handler cannot act on falls through to the menu.
func (o *Orchestrator) handlePostRide(ctx context.Context, input string, rec *session.Record) (string, error) {
	in := strings.ToLower(input)
	hasRide := rec.RideDetails != nil && rec.RideDetails.RideID != 0

	switch {
	case strings.Contains(in, "status") || strings.Contains(in, "driver"):
		if hasRide {
			return o.describeDriver(ctx, rec), nil
		}
	case strings.Contains(in, "cancel"):
		if hasRide {
			if err := o.rides.CancelRide(ctx, rec.RideDetails.RideID); err != nil {
				logx.WithError(err).WithField("ride_id", rec.RideDetails.RideID).Error("Ride cancellation failed")
				return respCancelFailed, nil
			}
			if _, err := o.sessions.SetState(ctx, rec.SessionID, session.StateGreeting); err != nil {
				return "", err
			}
			rec.State = session.StateGreeting
			logx.WithField("ride_id", rec.RideDetails.RideID).Info("Ride cancelled")
			return respRideCancelled, nil
		}
	case strings.Contains(in, "new") || strings.Contains(in, "another"):
		if _, err := o.sessions.SetState(ctx, rec.SessionID, session.StateAskingPickup); err != nil {
			return "", err
		}
		rec.State = session.StateAskingPickup
		return respNewRide, nil
	}
	return respPostRideMenu, nil
}

// describeDriver fetches the live status and formats the driver contact
// line. A provider failure degrades to an honest unavailable message
// and leaves the session in ride_created.
func (o *Orchestrator) describeDriver(ctx context.Context, rec *session.Record) string {
	info, err := o.rides.RideStatus(ctx, rec.RideDetails.RideID)
	if err != nil {
		logx.WithError(err).WithField("ride_id", rec.RideDetails.RideID).Warn("Ride status unavailable")
		return respStatusUnavailable
	}
	name, phone := driverNotAssigned, driverPhoneUnavailable
	if info.Driver != nil {
		if info.Driver.Name != "" {
			name = info.Driver.Name
		}
		if info.Driver.Phone != "" {
			phone = info.Driver.Phone
		}
	}
	return fmt.Sprintf(respDriverInfo, name, phone)
}
