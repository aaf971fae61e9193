// session/ride.go
package session

// RideStatus is the provider-side lifecycle state of a booked ride.
type RideStatus string

const (
	RideStatusPending        RideStatus = "pending"
	RideStatusDriverAssigned RideStatus = "driver_assigned"
	RideStatusDriverArriving RideStatus = "driver_arriving"
	RideStatusInProgress     RideStatus = "in_progress"
	RideStatusCompleted      RideStatus = "completed"
	RideStatusCancelled      RideStatus = "cancelled"
)

// Driver holds the contact details of an assigned driver.
type Driver struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	VehicleNumber string `json:"vehicle_number,omitempty"`
}

// RideDetails is the booking snapshot kept with a session once a ride
// has been created.
type RideDetails struct {
	RideID      int64      `json:"ride_id"`
	Message     string     `json:"message,omitempty"`
	Pickup      *Location  `json:"pickup_location,omitempty"`
	Drop        *Location  `json:"drop_location,omitempty"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	Status      RideStatus `json:"status,omitempty"`
	Driver      *Driver    `json:"driver,omitempty"`
	ETA         string     `json:"eta,omitempty"`
}

// Clone returns a deep copy of the ride details.
func (d *RideDetails) Clone() *RideDetails {
	if d == nil {
		return nil
	}
	out := *d
	if d.Pickup != nil {
		p := *d.Pickup
		out.Pickup = &p
	}
	if d.Drop != nil {
		dr := *d.Drop
		out.Drop = &dr
	}
	if d.Driver != nil {
		drv := *d.Driver
		out.Driver = &drv
	}
	return &out
}

// RideBooking is the result of a successful ride creation call.
type RideBooking struct {
	RideID  int64  `json:"ride_id"`
	Message string `json:"message"`
}

// RideStatusInfo is the current status of a ride as reported by the
// booking provider.
type RideStatusInfo struct {
	RideID int64      `json:"ride_id"`
	Status RideStatus `json:"status"`
	Driver *Driver    `json:"driver,omitempty"`
	ETA    string     `json:"eta,omitempty"`
}
