package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nexus-dash/apiserver/internal/directory"
	"github.com/nexus-dash/apiserver/internal/services"
	"github.com/nexus-dash/apiserver/types"
)

// DirectoryHandler serves the user directory view.
type DirectoryHandler struct {
	directoryService *services.DirectoryService
	accountService   *services.AccountService
}

func NewDirectoryHandler(directoryService *services.DirectoryService, accountService *services.AccountService) *DirectoryHandler {
	return &DirectoryHandler{directoryService: directoryService, accountService: accountService}
}

// DirectoryRouter registers directory routes on the given router.
func DirectoryRouter(r chi.Router, directoryService *services.DirectoryService, accountService *services.AccountService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewDirectoryHandler(directoryService, accountService)

	r.Use(authMiddleware)
	r.Get("/", handler.List)
	r.Post("/reload", handler.Reload)
}

// List answers with the filtered directory. While the upstream fetch is
// failing it answers 502 with the failure reason and no list.
func (h *DirectoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := types.FilterCriteria{
		Query:  q.Get("q"),
		Role:   strings.TrimSpace(q.Get("role")),
		Status: strings.TrimSpace(q.Get("status")),
	}

	listing, err := h.directoryService.List(r.Context(), criteria)
	if err != nil {
		writeDirectoryError(w, listing, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Reload refetches the upstream collection and answers with the unfiltered
// listing.
func (h *DirectoryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r, h.accountService)
	if !ok {
		return
	}

	listing, err := h.directoryService.Reload(r.Context(), account.ID)
	if err != nil {
		writeDirectoryError(w, listing, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// DirectoryErrorResponse is the body of a failed directory load.
type DirectoryErrorResponse struct {
	State directory.Phase `json:"state"`
	Error string          `json:"error"`
}

func writeDirectoryError(w http.ResponseWriter, listing directory.Listing, err error) {
	switch {
	case errors.Is(err, directory.ErrInvalidCriteria):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDirectoryUnavailable):
		writeJSON(w, http.StatusBadGateway, DirectoryErrorResponse{State: listing.State, Error: listing.Error})
	default:
		writeError(w, http.StatusInternalServerError, "failed to list users")
	}
}
