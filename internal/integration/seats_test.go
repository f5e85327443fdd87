package integration_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/metinatakli/seat-reservation-core/internal/app"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SeatMapTestSuite struct {
	BaseSuite
}

func TestSeatMapSuite(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	suite.Run(t, new(SeatMapTestSuite))
}

func (s *SeatMapTestSuite) TestGetSeatMap() {
	scenarios := []Scenario{
		{
			Name:             "returns 400 for invalid showtime ID",
			Method:           http.MethodGet,
			URL:              "/showtimes/0/seats",
			ExpectedStatus:   http.StatusBadRequest,
			ExpectedResponse: `{"message": "showtime ID must be greater than zero"}`,
		},
		{
			Name:             "returns 404 for non-existent showtime",
			Method:           http.MethodGet,
			URL:              "/showtimes/999/seats",
			ExpectedStatus:   http.StatusNotFound,
			ExpectedResponse: `{"message": "The requested resource not found"}`,
		},
		{
			Name:           "returns locked, booked and closed seats",
			Method:         http.MethodGet,
			URL:            "/showtimes/1/seats",
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: `{
				"showtime_id": 1,
				"room_id": 1,
				"seats": [
					{"id": 1, "row": "A", "number": 1, "label": "A1", "type": "REGULAR", "price": "10", "status": "BOOKED"},
					{"id": 2, "row": "A", "number": 2, "label": "A2", "type": "REGULAR", "price": "10", "status": "LOCKED"},
					{"id": 3, "row": "A", "number": 3, "label": "A3", "type": "REGULAR", "price": "10", "status": "AVAILABLE"},
					{"id": 4, "row": "A", "number": 4, "label": "A4", "type": "REGULAR", "price": "10", "status": "AVAILABLE"},
					{"id": 5, "row": "B", "number": 1, "label": "B1", "type": "VIP", "price": "15", "status": "AVAILABLE"},
					{"id": 6, "row": "B", "number": 2, "label": "B2", "type": "COUPLE", "price": "20", "status": "AVAILABLE"},
					{"id": 7, "row": "C", "number": 1, "label": "C1", "type": "REGULAR", "price": "10", "status": "MAINTENANCE"},
					{"id": 8, "row": "C", "number": 2, "label": "C2", "type": "REGULAR", "price": "10", "status": "AVAILABLE"},
					{"id": 9, "row": "C", "number": 3, "label": "C3", "type": "REGULAR", "price": "10", "status": "AVAILABLE"},
					{"id": 10, "row": "C", "number": 4, "label": "C4", "type": "REGULAR", "price": "10", "status": "AVAILABLE"}
				],
				"locked_seat_ids": [2],
				"booked_seat_ids": [1]
			}`,
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				ctx := context.Background()

				_, err := testApp.Bookings.CreateBooking(ctx, counterBooking(1, []int{1}))
				require.NoError(t, err)

				_, err = testApp.Bookings.AcquireLocks(ctx, 1, []int{2}, "guest:browsing")
				require.NoError(t, err)
			},
		},
	}

	for _, scenario := range scenarios {
		scenario.Run(s.T(), s.app)
	}
}

func (s *SeatMapTestSuite) TestUpdateSeatAdminStatus() {
	scenarios := []Scenario{
		{
			Name:           "rejects guests",
			Method:         http.MethodPatch,
			URL:            "/seats/3/admin-status",
			Body:           strings.NewReader(`{"admin_status": "BLOCKED"}`),
			ExpectedStatus: http.StatusUnauthorized,
		},
		{
			Name:           "refuses to close a held seat",
			Method:         http.MethodPatch,
			URL:            "/seats/3/admin-status",
			Body:           strings.NewReader(`{"admin_status": "MAINTENANCE"}`),
			Headers:        bearer(s.T(), app.RoleAdmin, "admin-1"),
			ExpectedStatus: http.StatusConflict,
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				_, err := testApp.Bookings.AcquireLocks(context.Background(), 1, []int{3}, "guest:browsing")
				require.NoError(t, err)
			},
		},
		{
			Name:           "closes a free seat",
			Method:         http.MethodPatch,
			URL:            "/seats/4/admin-status",
			Body:           strings.NewReader(`{"admin_status": "BLOCKED"}`),
			Headers:        bearer(s.T(), app.RoleAdmin, "admin-1"),
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: `{
				"id": 4, "row": "A", "number": 4, "label": "A4", "type": "REGULAR", "price": "0", "status": "BLOCKED"
			}`,
			AfterTestFunc: func(t testing.TB, testApp *TestApp, res *http.Response) {
				_, err := testApp.Bookings.AcquireLocks(context.Background(), 1, []int{4}, "guest:browsing")
				require.Error(t, err, "blocked seats cannot be locked")
			},
		},
	}

	for _, scenario := range scenarios {
		scenario.Run(s.T(), s.app)
	}
}
