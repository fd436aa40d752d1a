package server

import (
	"net/http"

	"github.com/qkhacks/controller/internal/service"
)

func handleGetOrganization(organizations *service.OrganizationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org, err := organizations.Get(r.Context(), callerFrom(r).OrganizationID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, org)
	}
}
