package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/textpilot/bulksms-backend/internal/provider"
)

// Router wires the campaign routes.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Post("/campaigns", h.CreateCampaign)
	r.Get("/campaigns", h.ListCampaigns)
	r.Get("/campaigns/{id}", h.GetCampaign)
	r.Delete("/campaigns/{id}", h.DeleteCampaign)
	r.Post("/campaigns/preview", h.Preview)
	r.Post("/test-send", h.TestSend)
	r.Post("/segments/estimate", h.EstimateSegments)

	return r
}

// optionsFrom lifts the caller's bearer credential out of the request. The
// credential is opaque here; adapters pass it upstream as-is and fall back
// to their configured keys when it is empty.
func optionsFrom(r *http.Request) provider.Options {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return provider.Options{Credential: strings.TrimPrefix(auth, "Bearer ")}
	}
	return provider.Options{}
}
