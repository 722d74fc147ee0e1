package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/salon-booking/internal/booking"
)

func TestFetchDayCapacities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/bookings", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]booking.DayCapacity{
			"2025-06-10": {
				Reserved: 2,
				Limit:    5,
				Slots: []booking.Slot{
					{ID: 1, Start: "10:00", End: "11:00", ResourceName: "Tanaka", Status: "available", Remaining: 3, MaxCapacity: 4, Price: 5000},
				},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	got, err := c.FetchDayCapacities(context.Background())
	require.NoError(t, err)
	require.Contains(t, got, "2025-06-10")

	day := got["2025-06-10"]
	assert.Equal(t, 2, day.Reserved)
	assert.Equal(t, 5, day.Limit)
	require.Len(t, day.Slots, 1)
	assert.Equal(t, "Tanaka", day.Slots[0].ResourceName)
	assert.Equal(t, 5000, day.Slots[0].Price)
}

func TestCreateBooking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/book", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2025-06-10", req.Date)
		assert.Equal(t, 1, req.SlotID)
		assert.Equal(t, 2, req.People)

		json.NewEncoder(w).Encode(MutationResponse{
			Message: "booking confirmed",
			Data:    &booking.DayCapacity{Reserved: 4, Limit: 5},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	res, err := c.CreateBooking(context.Background(), BookingRequest{
		Date: "2025-06-10", SlotID: 1, Name: "Taro", Email: "taro@example.com", People: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "booking confirmed", res.Message)
	require.NotNil(t, res.Data)
	assert.Equal(t, 4, res.Data.Reserved)
}

func TestRejectedCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "this slot is fully booked"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	_, err := c.CreateBooking(context.Background(), BookingRequest{})
	require.Error(t, err)

	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, http.StatusBadRequest, rej.Status)
	assert.Equal(t, "this slot is fully booked", rej.Message)
	assert.Equal(t, "this slot is fully booked", UserMessage(err))
	assert.False(t, IsUnreachable(err))
}

func TestRejectedFallsBackToDetailField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "people must be between 1 and 4"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	_, err := c.CreateBooking(context.Background(), BookingRequest{})
	var rej *RejectedError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, "people must be between 1 and 4", rej.Message)
}

func TestRejectedWithoutMessageGetsGenericText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	err := c.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, genericRejectedMessage, UserMessage(err))
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := New(srv.URL, time.Second)
	_, err := c.FetchDayCapacities(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.Equal(t, genericUnreachableMessage, UserMessage(err))
}

func TestFetchHistoryEscapesEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/my-bookings/taro@example.com", r.URL.Path)
		json.NewEncoder(w).Encode([]booking.BookingRecord{
			{ID: "b1", Date: "2025-06-10", Status: booking.StatusConfirmed, Price: 5000, People: 2},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	recs, err := c.FetchHistory(context.Background(), "taro@example.com")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "b1", recs[0].ID)
	assert.Equal(t, 10000, recs[0].TotalPrice())
}

func TestDeleteHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/delete-my-bookings", r.URL.Path)

		var req struct {
			Email string `json:"email"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "taro@example.com", req.Email)
		json.NewEncoder(w).Encode(map[string]string{"message": "deleted"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	require.NoError(t, c.DeleteHistory(context.Background(), "taro@example.com"))
}

func TestUserMessagePassesThroughOtherErrors(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}
