// conversation/responses.go
package conversation

// Canonical assistant replies. The state handlers compose every answer
// from these templates in English; localization happens afterwards in
// the turn pipeline.
const (
	respWelcome          = "Hello! I help with auto ride booking. What is your pickup location?"
	respGreetingFallback = "Hello! How can I help you with ride booking?"

	respPickupNotFound = "I couldn't find that pickup location. Please try again with a more specific address."
	respPickupSet      = "Great! Pickup location set to %s. What is your drop location?"
	respPickupFallback = "Sorry, I couldn't process that pickup location. Please try again."

	respDropNotFound = "I couldn't find that drop location. Please try again with a more specific address."
	respDropSet      = "Perfect! Drop location set to %s. Please provide your phone number so the driver can contact you."
	respDropFallback = "Sorry, I couldn't process that drop location. Please try again."

	respPhoneInvalid  = "Please provide a valid 10-digit phone number."
	respPhoneFallback = "Sorry, I couldn't process your phone number. Please try again."

	respRideCreated = "Ride request sent successfully! Ride ID: %d. Driver will call you in 5 minutes."
	respRideFailed  = "Sorry, failed to create ride booking: %s. Please try again."

	respPostRideMenu      = "Your ride is confirmed. You can ask for 'status', 'cancel' the ride, or book a 'new' ride."
	respPostRideFallback  = "How else can I help you with your ride?"
	respDriverInfo        = "Driver Name: %s, Phone: %s"
	respStatusUnavailable = "I couldn't reach the booking service to check your ride status. Please try again in a moment."
	respRideCancelled     = "Your ride has been cancelled."
	respCancelFailed      = "Sorry, I couldn't cancel your ride right now. Please try again."
	respNewRide           = "Sure! What is your pickup location for the new ride?"

	respGenericError = "I'm sorry, I encountered an error. Please try again."
)

// Driver placeholders when status comes back without contact details.
const (
	driverNotAssigned      = "Not assigned"
	driverPhoneUnavailable = "Not available"
)
