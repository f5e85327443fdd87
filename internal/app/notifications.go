package app

import (
	"net/http"

	"github.com/metinatakli/seat-reservation-core/internal/notify"
)

// ServeNotifications upgrades to a WebSocket that receives booking status
// events. Guests receive events for bookings their session created; staff
// receive every event. Browsers cannot set headers on WebSocket requests, so
// staff may pass their token as the access_token query parameter.
func (app *Application) ServeNotifications(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	subscriber, ok := app.notificationSubscriber(r)
	if !ok {
		app.unauthorizedAccessResponse(w, r)
		return
	}

	err := app.hub.ServeWS(w, r, subscriber)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	logger.Info("notification subscriber connected", "subscriber", subscriber)
}

func (app *Application) notificationSubscriber(r *http.Request) (string, bool) {
	if _, ok := contextGetStaff(r); ok {
		return notify.AllEvents, true
	}

	if raw := r.URL.Query().Get("access_token"); raw != "" {
		if _, err := app.parseStaffToken(raw); err != nil {
			return "", false
		}

		return notify.AllEvents, true
	}

	cookie, err := r.Cookie(app.sessionManager.Cookie.Name)
	if err != nil {
		return "", false
	}

	ctx, err := app.sessionManager.Load(r.Context(), cookie.Value)
	if err != nil {
		return "", false
	}

	guestID := app.sessionManager.GetString(ctx, SessionKeyGuestID.String())
	if guestID == "" {
		return "", false
	}

	return "guest:" + guestID, true
}
