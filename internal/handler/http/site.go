package http

import (
	"net/http"

	"github.com/fieldclock/fieldclock-backend-go/internal/domain/site"
	"github.com/fieldclock/fieldclock-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SiteHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
}

type siteHandlerImpl struct {
	sites site.SiteRepository
}

func NewSiteHandler(sites site.SiteRepository) SiteHandler {
	return &siteHandlerImpl{sites: sites}
}

// List implements SiteHandler.
func (h *siteHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	sites, err := h.sites.List(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	responses := make([]site.SiteResponse, 0, len(sites))
	for _, s := range sites {
		responses = append(responses, site.ToResponse(s))
	}

	response.Success(w, responses)
}

// Get implements SiteHandler.
func (h *siteHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.sites.GetByID(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, site.ToResponse(s))
}
