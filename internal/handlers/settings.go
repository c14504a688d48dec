package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator"
	"github.com/nexus-dash/apiserver/internal/services"
	"github.com/nexus-dash/apiserver/internal/settings"
)

// SettingsHandler serves the preference screen.
type SettingsHandler struct {
	settingsService *services.SettingsService
	accountService  *services.AccountService
	validate        *validator.Validate
}

func NewSettingsHandler(settingsService *services.SettingsService, accountService *services.AccountService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		accountService:  accountService,
		validate:        validator.New(),
	}
}

// SettingsRouter registers settings routes on the given router.
func SettingsRouter(r chi.Router, settingsService *services.SettingsService, accountService *services.AccountService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewSettingsHandler(settingsService, accountService)

	r.Use(authMiddleware)
	r.Get("/", handler.Get)
	r.Post("/toggles/{group}/{key}", handler.Toggle)
	r.Put("/general/{field}", handler.Select)
	r.Post("/reset", handler.Reset)
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r, h.accountService)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSettingsResponse(h.settingsService.Get(account.ID)))
}

func (h *SettingsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r, h.accountService)
	if !ok {
		return
	}

	group := settings.Group(chi.URLParam(r, "group"))
	state, err := h.settingsService.Toggle(r.Context(), account.ID, group, chi.URLParam(r, "key"))
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettingsResponse(state))
}

func (h *SettingsHandler) Select(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r, h.accountService)
	if !ok {
		return
	}

	var req SelectRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.settingsService.Select(r.Context(), account.ID, chi.URLParam(r, "field"), req.Value)
	if err != nil {
		writeSettingsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettingsResponse(state))
}

func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r, h.accountService)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSettingsResponse(h.settingsService.Reset(r.Context(), account.ID)))
}

type SelectRequest struct {
	Value string `json:"value" validate:"required"`
}

// SettingsResponse carries the state and the options of each select field.
type SettingsResponse struct {
	settings.State
	Options map[string][]string `json:"options"`
}

func newSettingsResponse(state settings.State) SettingsResponse {
	options := make(map[string][]string)
	for _, field := range settings.Fields() {
		options[field], _ = settings.Options(field)
	}
	return SettingsResponse{State: state, Options: options}
}

func writeSettingsError(w http.ResponseWriter, err error) {
	if errors.Is(err, settings.ErrUnknownKey) || errors.Is(err, settings.ErrInvalidOption) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to update settings")
}
