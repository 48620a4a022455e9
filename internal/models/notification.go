package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType categorizes inbox notifications
type NotificationType string

const (
	NotificationTypeRequest  NotificationType = "request"  // someone asked to join your trip
	NotificationTypeApproved NotificationType = "approved" // your join request was approved
	NotificationTypeInvite   NotificationType = "invite"   // a driver invited you onto a trip
	NotificationTypeCancel   NotificationType = "cancel"   // a trip you were on was cancelled
	NotificationTypeInfo     NotificationType = "info"     // rejections, removals, invite outcomes
	NotificationTypeMatch    NotificationType = "match"    // a trip matching your request appeared
)

// NotificationTemplate identifies the message template of a notification.
// Each kind carries its own argument struct in NotificationPayload, so
// clients can localize without string-splitting the message.
type NotificationTemplate string

const (
	TemplateJoinRequest      NotificationTemplate = "join_request"
	TemplateRequestApproved  NotificationTemplate = "request_approved"
	TemplateRequestRejected  NotificationTemplate = "request_rejected"
	TemplatePassengerRemoved NotificationTemplate = "passenger_removed"
	TemplatePassengerLeft    NotificationTemplate = "passenger_left"
	TemplateTripInvite       NotificationTemplate = "trip_invite"
	TemplateInviteAccepted   NotificationTemplate = "invite_accepted"
	TemplateTripCancelled    NotificationTemplate = "trip_cancelled"
)

// JoinRequestArgs are the arguments for TemplateJoinRequest
type JoinRequestArgs struct {
	PassengerName string `json:"passenger_name"`
}

// PassengerLeftArgs are the arguments for TemplatePassengerLeft
type PassengerLeftArgs struct {
	PassengerName string `json:"passenger_name"`
}

// TripInviteArgs are the arguments for TemplateTripInvite
type TripInviteArgs struct {
	DriverName    string    `json:"driver_name"`
	Direction     Direction `json:"direction"`
	DepartureTime time.Time `json:"departure_time"`
}

// InviteAcceptedArgs are the arguments for TemplateInviteAccepted
type InviteAcceptedArgs struct {
	PassengerName string `json:"passenger_name"`
}

// TripCancelledArgs are the arguments for TemplateTripCancelled
type TripCancelledArgs struct {
	Direction     Direction `json:"direction"`
	DepartureTime time.Time `json:"departure_time"`
}

// NotificationPayload is a tagged variant: Template selects which of the
// argument pointers is populated. Stored as a JSONB column.
type NotificationPayload struct {
	Template       NotificationTemplate `json:"template"`
	JoinRequest    *JoinRequestArgs     `json:"join_request,omitempty"`
	PassengerLeft  *PassengerLeftArgs   `json:"passenger_left,omitempty"`
	TripInvite     *TripInviteArgs      `json:"trip_invite,omitempty"`
	InviteAccepted *InviteAcceptedArgs  `json:"invite_accepted,omitempty"`
	TripCancelled  *TripCancelledArgs   `json:"trip_cancelled,omitempty"`
}

// Value implements the driver.Valuer interface
func (p NotificationPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface
func (p *NotificationPayload) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into NotificationPayload", src)
	}
}

// Render produces the default English title and message for the payload.
// Clients with their own string tables render from Template + args instead.
func (p NotificationPayload) Render() (title, message string) {
	switch p.Template {
	case TemplateJoinRequest:
		name := "A passenger"
		if p.JoinRequest != nil {
			name = p.JoinRequest.PassengerName
		}
		return "New join request", fmt.Sprintf("%s wants to join your trip", name)
	case TemplateRequestApproved:
		return "Request approved", "The driver approved your join request"
	case TemplateRequestRejected:
		return "Request declined", "The driver declined your join request"
	case TemplatePassengerRemoved:
		return "Removed from trip", "The driver removed you from the trip"
	case TemplatePassengerLeft:
		name := "A passenger"
		if p.PassengerLeft != nil {
			name = p.PassengerLeft.PassengerName
		}
		return "Passenger left", fmt.Sprintf("%s left your trip", name)
	case TemplateTripInvite:
		if p.TripInvite != nil {
			return "Trip invitation", fmt.Sprintf("%s invited you to a trip on %s",
				p.TripInvite.DriverName, p.TripInvite.DepartureTime.Format("Mon 15:04"))
		}
		return "Trip invitation", "You were invited to a trip"
	case TemplateInviteAccepted:
		name := "A passenger"
		if p.InviteAccepted != nil {
			name = p.InviteAccepted.PassengerName
		}
		return "Invitation accepted", fmt.Sprintf("%s accepted your invitation", name)
	case TemplateTripCancelled:
		if p.TripCancelled != nil {
			return "Trip cancelled", fmt.Sprintf("The trip on %s was cancelled",
				p.TripCancelled.DepartureTime.Format("Mon 15:04"))
		}
		return "Trip cancelled", "A trip you joined was cancelled"
	default:
		return "Notification", ""
	}
}

// AppNotification is a one-way message to a single recipient, written as
// a side effect of a trip state transition.
type AppNotification struct {
	ID            string              `json:"id" db:"id"`
	UserID        string              `json:"user_id" db:"user_id"`
	Type          NotificationType    `json:"type" db:"type"`
	Title         string              `json:"title" db:"title"`
	Message       string              `json:"message" db:"message"`
	Payload       NotificationPayload `json:"payload" db:"payload"`
	RelatedTripID *string             `json:"related_trip_id,omitempty" db:"related_trip_id"`
	IsRead        bool                `json:"is_read" db:"is_read"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
}
