//go:build e2e

package booking_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"booking-engine/internal/domain/commission"
	"booking-engine/internal/handler/dto/request"
	"booking-engine/internal/handler/dto/response"
	"booking-engine/internal/usecase/commands"
	"booking-engine/tests/common/builder"
	"booking-engine/tests/common/dbtest"
	"booking-engine/tests/common/httptest"
	"booking-engine/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL      = "/api/bookings"
	bookingURL       = "/api/bookings/%s"
	strategiesURL    = "/api/commission-strategies"
	availabilityURL  = "/api/resource-items/%s/availability?start_at=%s&end_at=%s"
	expireOverdueURL = "/api/bookings/expire-overdue"
)

type BookingSuite struct {
	e2e.SharedSuite
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

// slot returns an hour-aligned interval starting dayOffset days from now.
func slot(dayOffset, startHour, hours int) (time.Time, time.Time) {
	day := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, dayOffset)
	start := day.Add(time.Duration(startHour) * time.Hour)
	return start, start.Add(time.Duration(hours) * time.Hour)
}

func createRequest(item uuid.UUID, start, end time.Time) request.CreateBookingRequest {
	userID := uuid.New()
	return request.CreateBookingRequest{
		UserID:         &userID,
		ResourceItemID: item,
		StartAt:        start,
		EndAt:          end,
		BasePrice:      "100",
		Currency:       "USD",
		ResourceType:   "room",
	}
}

func (s *BookingSuite) createBooking(req request.CreateBookingRequest) response.BookingResponse {
	t := s.T()
	w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, req, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res response.BookingResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &res))
	return res
}

func (s *BookingSuite) TestCreateBooking() {
	s.Run("Normal case: price includes the best matching active strategy", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, strategiesURL,
			builder.NewStrategyBuilder().BuildRequestDTO(), "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var strategy response.StrategyResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &strategy))

		item := uuid.New()
		start, end := slot(2, 10, 2)
		req := createRequest(item, start, end)

		actual := s.createBooking(req)

		expected := response.BookingResponse{
			UserID:         req.UserID.String(),
			ResourceItemID: item.String(),
			StartAt:        start.Format(time.RFC3339),
			EndAt:          end.Format(time.RFC3339),
			Status:         "PENDING",
			Price: response.PriceResponse{
				Base:       "200.00",
				Commission: "20.00",
				Total:      "220.00",
				Currency:   "USD",
				AppliedStrategy: &response.AppliedStrategyResponse{
					ID:    strategy.ID,
					Name:  "standard-10",
					Type:  "PERCENTAGE",
					Value: "10",
				},
			},
			Version: 1,
		}
		opts := []cmp.Option{
			cmpopts.IgnoreFields(response.BookingResponse{}, "ID", "PaymentDeadline", "CreatedAt", "UpdatedAt"),
		}
		if diff := cmp.Diff(expected, actual, opts...); diff != "" {
			t.Errorf("Booking response mismatch (-want +got):\n%s", diff)
		}
		require.NotNil(t, actual.PaymentDeadline)
	})

	s.Run("Normal case: inactive strategies are ignored", func() {
		t := s.T()

		dbtest.InsertStrategy(t, s.DB, builder.NewStrategyBuilder().With(func(b *builder.StrategyBuilder) {
			b.Name = "dormant"
			b.Type = commission.TypeFixedAmount
			b.Value = decimal.NewFromInt(50)
			b.Active = false
		}).MustBuild())

		start, end := slot(2, 10, 1)
		actual := s.createBooking(createRequest(uuid.New(), start, end))

		require.Equal(t, "100.00", actual.Price.Total)
		require.Nil(t, actual.Price.AppliedStrategy)
	})

	s.Run("Error case: overlapping booking on the same item returns 409", func() {
		t := s.T()

		item := uuid.New()
		start, end := slot(3, 9, 3)
		first := s.createBooking(createRequest(item, start, end))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL,
			createRequest(item, start.Add(time.Hour), end.Add(time.Hour)), "")
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

		var body struct {
			Detail struct {
				ConflictingBookings []string `json:"conflicting_bookings"`
			} `json:"detail"`
		}
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &body))
		require.Equal(t, []string{first.ID}, body.Detail.ConflictingBookings)
		require.Equal(t, 1, dbtest.CountActiveBookings(t, s.DB, item))
	})

	s.Run("Normal case: adjacent bookings and cancelled slots are free", func() {
		t := s.T()

		item := uuid.New()
		start, end := slot(4, 9, 2)
		first := s.createBooking(createRequest(item, start, end))
		s.createBooking(createRequest(item, end, end.Add(time.Hour)))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(bookingURL, first.ID)+"/cancel",
			request.CancelBookingRequest{Reason: "plans changed"}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		s.createBooking(createRequest(item, start, end))
		require.Equal(t, 2, dbtest.CountActiveBookings(t, s.DB, item))
	})

	s.Run("Concurrency: identical requests produce exactly one booking", func() {
		t := s.T()

		item := uuid.New()
		start, end := slot(5, 12, 2)

		const workers = 8
		codes := make([]int, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, createRequest(item, start, end), "")
				codes[i] = w.Code
			}()
		}
		wg.Wait()

		created := 0
		for _, code := range codes {
			switch code {
			case http.StatusCreated:
				created++
			case http.StatusConflict, http.StatusServiceUnavailable:
			default:
				t.Errorf("unexpected status %d", code)
			}
		}
		require.Equal(t, 1, created)
		require.Equal(t, 1, dbtest.CountActiveBookings(t, s.DB, item))
	})
}

func (s *BookingSuite) TestLifecycle() {
	s.Run("Normal case: payment pending, paid, completed", func() {
		t := s.T()

		start, end := slot(6, 10, 1)
		b := s.createBooking(createRequest(uuid.New(), start, end))
		url := fmt.Sprintf(bookingURL, b.ID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, url+"/payment-pending", nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, url+"/payment",
			request.ProcessPaymentRequest{Status: string(commands.PaymentSucceeded)}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var confirmed response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &confirmed))
		require.Equal(t, "CONFIRMED", confirmed.Status)
		require.NotNil(t, confirmed.ConfirmedAt)
		require.Equal(t, int64(3), confirmed.Version)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, url+"/complete", nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Equal(t, "COMPLETED", dbtest.BookingStatus(t, s.DB, uuid.MustParse(b.ID)))
	})

	s.Run("Error case: completing a pending booking is an illegal transition", func() {
		t := s.T()

		start, end := slot(6, 14, 1)
		b := s.createBooking(createRequest(uuid.New(), start, end))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(bookingURL, b.ID)+"/complete", nil, "")
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "Illegal status transition")
		require.Equal(t, "PENDING", dbtest.BookingStatus(t, s.DB, uuid.MustParse(b.ID)))
	})

	s.Run("Normal case: overdue bookings are expired by the sweep", func() {
		t := s.T()

		item := uuid.New()
		start, end := slot(7, 8, 2)
		overdue := s.createBooking(createRequest(item, start, end))
		fresh := s.createBooking(createRequest(uuid.New(), start, end))

		dbtest.ForcePaymentDeadline(t, s.DB, uuid.MustParse(overdue.ID), time.Now().Add(-time.Minute))

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, expireOverdueURL, nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var result commands.SweepResult
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &result))
		require.Equal(t, commands.SweepResult{Scanned: 1, Expired: 1}, result)

		require.Equal(t, "EXPIRED", dbtest.BookingStatus(t, s.DB, uuid.MustParse(overdue.ID)))
		require.Equal(t, "PENDING", dbtest.BookingStatus(t, s.DB, uuid.MustParse(fresh.ID)))

		w = httptest.PerformRequest(t, s.Router, http.MethodGet,
			fmt.Sprintf(availabilityURL, item, start.Format(time.RFC3339), end.Format(time.RFC3339)), nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var availability response.AvailabilityResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &availability))
		require.True(t, availability.IsAvailable)
	})
}
