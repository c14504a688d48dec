package handlers

import (
	"errors"
	"net/http"

	"github.com/nexus-dash/apiserver/internal/services"
)

// InsightsHandler serves the landing, overview and analytics pages.
type InsightsHandler struct {
	insightsService *services.InsightsService
	accountService  *services.AccountService
}

func NewInsightsHandler(insightsService *services.InsightsService, accountService *services.AccountService) *InsightsHandler {
	return &InsightsHandler{insightsService: insightsService, accountService: accountService}
}

func (h *InsightsHandler) Landing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.insightsService.Landing())
}

func (h *InsightsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r, h.accountService)
	if !ok {
		return
	}

	dashboard, err := h.insightsService.Dashboard(account.FirstName(), r.URL.Query().Get("range"))
	if err != nil {
		writeInsightsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *InsightsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	analytics, err := h.insightsService.Analytics(q.Get("metric"), q.Get("period"))
	if err != nil {
		writeInsightsError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func writeInsightsError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrInvalidQuery) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to build page")
}
