// README: Notification envelope, topic scheme, and publisher contract.
package notify

import (
	"context"

	"vahan/internal/types"
)

// Message is the envelope published to every topic. Data carries the
// booking (or other entity) snapshot the subscriber renders.
type Message struct {
	Type            string   `json:"type"`
	BookingID       types.ID `json:"bookingId,omitempty"`
	Message         string   `json:"message,omitempty"`
	Data            any      `json:"data,omitempty"`
	ExcludeDriverID types.ID `json:"excludeDriverId,omitempty"`
}

// Event pairs a message with its destination topic. State transitions
// build a list of events and hand them to a Publisher only after the
// transition has committed.
type Event struct {
	Topic string
	Msg   Message
}

// BroadcastTopic carries booking-no-longer-available / re-opened fanout
// to every connected driver.
const BroadcastTopic = "bookings"

func DriverBookingsTopic(driverID types.ID) string {
	return "driver/" + string(driverID) + "/bookings"
}

func DriverUpdatesTopic(driverID types.ID) string {
	return "driver/" + string(driverID) + "/updates"
}

func BookingTopic(bookingID types.ID) string {
	return "booking/" + string(bookingID)
}

// Publisher delivers a message to a topic, at most once per call.
// Delivery and ordering beyond that are the channel's problem.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) error
}
