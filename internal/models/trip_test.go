package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripIsExpired(t *testing.T) {
	now := time.Now()

	t.Run("Within Grace Period", func(t *testing.T) {
		trip := &Trip{DepartureTime: now.Add(-29 * time.Minute)}
		assert.False(t, trip.IsExpired(now))
	})

	t.Run("Past Grace Period", func(t *testing.T) {
		trip := &Trip{DepartureTime: now.Add(-31 * time.Minute)}
		assert.True(t, trip.IsExpired(now))
	})

	t.Run("Future Departure", func(t *testing.T) {
		trip := &Trip{DepartureTime: now.Add(2 * time.Hour)}
		assert.False(t, trip.IsExpired(now))
	})
}

func TestTripIsJoinable(t *testing.T) {
	now := time.Now()
	departure := now.Add(2 * time.Hour)

	tests := []struct {
		name     string
		trip     Trip
		joinable bool
	}{
		{
			name:     "Open Offer With Seats",
			trip:     Trip{Type: TripTypeOffer, DepartureTime: departure, AvailableSeats: 2},
			joinable: true,
		},
		{
			name:     "Offer With No Seats",
			trip:     Trip{Type: TripTypeOffer, DepartureTime: departure, AvailableSeats: 0},
			joinable: false,
		},
		{
			name:     "Closed Trip",
			trip:     Trip{Type: TripTypeOffer, DepartureTime: departure, AvailableSeats: 2, IsClosed: true},
			joinable: false,
		},
		{
			name:     "Expired Trip",
			trip:     Trip{Type: TripTypeOffer, DepartureTime: now.Add(-31 * time.Minute), AvailableSeats: 2},
			joinable: false,
		},
		{
			name:     "Recently Departed Still Joinable",
			trip:     Trip{Type: TripTypeOffer, DepartureTime: now.Add(-10 * time.Minute), AvailableSeats: 2},
			joinable: true,
		},
		{
			// Seat requests don't gate on their seat count: applications
			// never decrement it
			name:     "Request With Zero Seats",
			trip:     Trip{Type: TripTypeRequest, DepartureTime: departure, AvailableSeats: 0},
			joinable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.joinable, tt.trip.IsJoinable(now))
		})
	}
}

func TestTripTotalSeats(t *testing.T) {
	trip := &Trip{
		AvailableSeats: 2,
		Passengers: PassengerList{
			{UID: "a", Status: PassengerStatusApproved},
			{UID: "b", Status: PassengerStatusApproved},
			{UID: "c", Status: PassengerStatusPending},
		},
	}

	// Pending entries never count toward capacity
	assert.Equal(t, 2, trip.ApprovedCount())
	assert.Equal(t, 4, trip.TotalSeats())
}

func TestFindPassenger(t *testing.T) {
	trip := &Trip{
		Passengers: PassengerList{
			{UID: "a"},
			{UID: "b"},
		},
	}

	assert.Equal(t, 0, trip.FindPassenger("a"))
	assert.Equal(t, 1, trip.FindPassenger("b"))
	assert.Equal(t, -1, trip.FindPassenger("missing"))
}

func TestCreateTripRequestValidate(t *testing.T) {
	valid := CreateTripRequest{
		Type:           TripTypeOffer,
		Direction:      DirectionToCity,
		DepartureTime:  time.Now().Add(2 * time.Hour),
		Seats:          3,
		PickupLocation: "Clock tower",
	}

	t.Run("Valid", func(t *testing.T) {
		req := valid
		assert.NoError(t, req.Validate())
	})

	t.Run("Bad Type", func(t *testing.T) {
		req := valid
		req.Type = "carpool"
		assert.Error(t, req.Validate())
	})

	t.Run("Bad Direction", func(t *testing.T) {
		req := valid
		req.Direction = "north"
		assert.Error(t, req.Validate())
	})

	t.Run("Seats Out Of Range", func(t *testing.T) {
		req := valid
		req.Seats = 0
		assert.Error(t, req.Validate())
		req.Seats = 9
		assert.Error(t, req.Validate())
	})

	t.Run("Departure In The Past", func(t *testing.T) {
		req := valid
		req.DepartureTime = time.Now().Add(-time.Hour)
		assert.Error(t, req.Validate())
	})

	t.Run("Departure Within Grace Period", func(t *testing.T) {
		req := valid
		req.DepartureTime = time.Now().Add(-10 * time.Minute)
		assert.NoError(t, req.Validate())
	})
}

func TestPassengerListRoundTrip(t *testing.T) {
	list := PassengerList{
		{UID: "a", Name: "Nimal Perera", Status: PassengerStatusApproved},
		{UID: "b", Name: "Kamala Silva", Status: PassengerStatusPending},
	}

	value, err := list.Value()
	require.NoError(t, err)

	var decoded PassengerList
	require.NoError(t, decoded.Scan(value))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Nimal Perera", decoded[0].Name)
	assert.Equal(t, PassengerStatusPending, decoded[1].Status)
}

func TestPassengerListNilValue(t *testing.T) {
	var list PassengerList
	value, err := list.Value()
	require.NoError(t, err)
	// nil list stores as an empty array, never null
	assert.Equal(t, "[]", value)
}
