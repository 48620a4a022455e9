package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationPayloadRender(t *testing.T) {
	departure := time.Date(2025, 11, 17, 7, 30, 0, 0, time.UTC) // a Monday

	tests := []struct {
		name    string
		payload NotificationPayload
		title   string
		message string
	}{
		{
			name: "Join Request",
			payload: NotificationPayload{
				Template:    TemplateJoinRequest,
				JoinRequest: &JoinRequestArgs{PassengerName: "Kamala Silva"},
			},
			title:   "New join request",
			message: "Kamala Silva wants to join your trip",
		},
		{
			name:    "Join Request Without Args",
			payload: NotificationPayload{Template: TemplateJoinRequest},
			title:   "New join request",
			message: "A passenger wants to join your trip",
		},
		{
			name:    "Request Approved",
			payload: NotificationPayload{Template: TemplateRequestApproved},
			title:   "Request approved",
			message: "The driver approved your join request",
		},
		{
			name:    "Request Rejected",
			payload: NotificationPayload{Template: TemplateRequestRejected},
			title:   "Request declined",
			message: "The driver declined your join request",
		},
		{
			name:    "Passenger Removed",
			payload: NotificationPayload{Template: TemplatePassengerRemoved},
			title:   "Removed from trip",
			message: "The driver removed you from the trip",
		},
		{
			name: "Passenger Left",
			payload: NotificationPayload{
				Template:      TemplatePassengerLeft,
				PassengerLeft: &PassengerLeftArgs{PassengerName: "Nimal Perera"},
			},
			title:   "Passenger left",
			message: "Nimal Perera left your trip",
		},
		{
			name: "Trip Invite",
			payload: NotificationPayload{
				Template: TemplateTripInvite,
				TripInvite: &TripInviteArgs{
					DriverName:    "Nimal Perera",
					Direction:     DirectionToCity,
					DepartureTime: departure,
				},
			},
			title:   "Trip invitation",
			message: "Nimal Perera invited you to a trip on Mon 07:30",
		},
		{
			name:    "Trip Invite Without Args",
			payload: NotificationPayload{Template: TemplateTripInvite},
			title:   "Trip invitation",
			message: "You were invited to a trip",
		},
		{
			name: "Invite Accepted",
			payload: NotificationPayload{
				Template:       TemplateInviteAccepted,
				InviteAccepted: &InviteAcceptedArgs{PassengerName: "Kamala Silva"},
			},
			title:   "Invitation accepted",
			message: "Kamala Silva accepted your invitation",
		},
		{
			name: "Trip Cancelled",
			payload: NotificationPayload{
				Template: TemplateTripCancelled,
				TripCancelled: &TripCancelledArgs{
					Direction:     DirectionToTown,
					DepartureTime: departure,
				},
			},
			title:   "Trip cancelled",
			message: "The trip on Mon 07:30 was cancelled",
		},
		{
			name:    "Unknown Template",
			payload: NotificationPayload{Template: "mystery"},
			title:   "Notification",
			message: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, message := tt.payload.Render()
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestNotificationPayloadRoundTrip(t *testing.T) {
	payload := NotificationPayload{
		Template: TemplateTripInvite,
		TripInvite: &TripInviteArgs{
			DriverName:    "Nimal Perera",
			Direction:     DirectionToCity,
			DepartureTime: time.Date(2025, 11, 17, 7, 30, 0, 0, time.UTC),
		},
	}

	value, err := payload.Value()
	require.NoError(t, err)

	var decoded NotificationPayload
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, TemplateTripInvite, decoded.Template)
	require.NotNil(t, decoded.TripInvite)
	assert.Equal(t, "Nimal Perera", decoded.TripInvite.DriverName)
	// variants other than the tagged one stay nil
	assert.Nil(t, decoded.JoinRequest)
	assert.Nil(t, decoded.TripCancelled)
}
