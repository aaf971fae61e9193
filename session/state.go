package session

// State is one position in the booking conversation flow. The flow is a
// closed state machine: greeting asks for a pickup location, pickup and
// drop collection feed into phone collection, a successful booking moves
// the session to ride_created, and post-ride commands either keep the
// session there or loop it back to the start.
type State string

const (
	StateGreeting       State = "greeting"
	StateAskingPickup   State = "asking_pickup"
	StateAskingDrop     State = "asking_drop"
	StateAskingPhone    State = "asking_phone"
	StateConfirmingRide State = "confirming_ride"
	StateRideCreated    State = "ride_created"
	StateCompleted      State = "completed"
)

// Valid reports whether s is a known conversation state.
func (s State) Valid() bool {
	switch s {
	case StateGreeting, StateAskingPickup, StateAskingDrop, StateAskingPhone,
		StateConfirmingRide, StateRideCreated, StateCompleted:
		return true
	}
	return false
}
