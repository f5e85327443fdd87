package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/metinatakli/seat-reservation-core/api"
	"github.com/metinatakli/seat-reservation-core/internal/booking"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/metinatakli/seat-reservation-core/internal/mocks"
	"github.com/metinatakli/seat-reservation-core/internal/notify"
	"github.com/metinatakli/seat-reservation-core/internal/validator"
	"github.com/shopspring/decimal"
)

const (
	testJWTSecret = "test-secret"
	testIssuer    = "seat-reservation-core"
)

// testNow is the booking service clock in handler tests. Tokens are signed
// against the wall clock.
var testNow = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

func newTestApplication(opts ...func(*Application)) *Application {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := &Application{
		validator:      validator.NewValidator(),
		logger:         logger,
		sessionManager: scs.New(),
		seatRepo:       &mocks.MockSeatRepo{},
		lockRepo:       &mocks.MockSeatLockRepo{},
		bookingRepo:    &mocks.MockBookingRepo{},
		payments:       &mocks.MockPaymentVerifier{},
		hub:            notify.NewHub(logger),
	}

	app.config.Env = "test"
	app.config.Auth.JWTSecret = testJWTSecret
	app.config.Auth.Issuer = testIssuer

	for _, opt := range opts {
		opt(app)
	}

	app.bookings = booking.NewService(app.seatRepo, app.lockRepo, app.bookingRepo, app.publishers,
		booking.WithClock(func() time.Time { return testNow }),
		booking.WithHoldTTL(10*time.Minute),
		booking.WithMaxSeats(4),
		booking.WithRetry(1, 0),
		booking.WithLogger(logger),
	)

	return app
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader = http.NoBody

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}

		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

// withSessionFrom carries the session cookie of a previous response over to r.
func withSessionFrom(r *http.Request, prev *httptest.ResponseRecorder) *http.Request {
	for _, cookie := range prev.Result().Cookies() {
		r.AddCookie(cookie)
	}

	return r
}

func withStaffToken(t *testing.T, r *http.Request, role Role, subject string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+signStaffToken(t, role, subject, time.Now().Add(time.Hour)))
	return r
}

func signStaffToken(t *testing.T, role Role, subject string, expiresAt time.Time) string {
	claims := StaffClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}

	return token
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		if tt.wantErrMessage == "" {
			return
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] && validationResp.Message != tt.wantErrMessage {
			t.Errorf("Expected validation error message '%s' not found in response", tt.wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}

func testShowtime() *domain.Showtime {
	return &domain.Showtime{
		ID:        1,
		RoomID:    10,
		StartTime: testNow.Add(2 * time.Hour),
		EndTime:   testNow.Add(4 * time.Hour),
		BasePrice: decimal.NewFromInt(10),
	}
}

func testRoomSeats() []domain.Seat {
	return []domain.Seat{
		{ID: 1, RoomID: 10, Row: "A", Number: 1, Type: domain.SeatTypeRegular, AdminStatus: domain.AdminStatusAvailable},
		{ID: 2, RoomID: 10, Row: "A", Number: 2, Type: domain.SeatTypeVIP, AdminStatus: domain.AdminStatusAvailable},
		{ID: 3, RoomID: 10, Row: "A", Number: 3, Type: domain.SeatTypeCouple, AdminStatus: domain.AdminStatusMaintenance},
	}
}

func ptr[T any](v T) *T {
	return &v
}
