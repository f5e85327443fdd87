package app

import (
	"net/http"

	"github.com/metinatakli/seat-reservation-core/api"
)

// GetOpenAPISpec serves the API description the router is generated from.
func (app *Application) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	swagger, err := api.GetSwagger()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, swagger, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
