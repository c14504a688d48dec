package handlers

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator"
	"github.com/nexus-dash/apiserver/internal/services"
	"github.com/nexus-dash/apiserver/internal/storage"
	"github.com/nexus-dash/apiserver/internal/store"
	"github.com/nexus-dash/apiserver/types"
)

const maxAvatarBytes = 5 << 20

// ProfileHandler serves the profile page of the current account.
type ProfileHandler struct {
	profileService *services.ProfileService
	accountService *services.AccountService
	validate       *validator.Validate
}

func NewProfileHandler(profileService *services.ProfileService, accountService *services.AccountService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		accountService: accountService,
		validate:       validator.New(),
	}
}

// ProfileRouter registers profile routes on the given router.
func ProfileRouter(
	r chi.Router,
	profileService *services.ProfileService,
	accountService *services.AccountService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewProfileHandler(profileService, accountService)

	r.Use(authMiddleware)
	r.Get("/", handler.Get)
	r.Put("/", handler.Update)
	r.Get("/avatar", handler.GetAvatar)
	r.Put("/avatar", handler.UploadAvatar)
	r.Get("/activity", handler.ListActivity)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r, h.accountService)
	if !ok {
		return
	}

	profile, err := h.profileService.Get(r.Context(), account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Profile: profile, Stats: h.profileService.Stats()})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r, h.accountService)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profileService.Update(r.Context(), account, req.toProfile())
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "email already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Profile: profile, Stats: h.profileService.Stats()})
}

// UploadAvatar stores the request body as the account's avatar image.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r, h.accountService)
	if !ok {
		return
	}

	contentType := strings.TrimSpace(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusUnsupportedMediaType, "avatar must be an image")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxAvatarBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read avatar")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "avatar is empty")
		return
	}
	if len(data) > maxAvatarBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "avatar is too large")
		return
	}

	profile, err := h.profileService.UploadAvatar(r.Context(), account, data, contentType)
	if err != nil {
		if errors.Is(err, services.ErrStorageUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "avatar storage unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rc, err := h.profileService.Avatar(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStorageUnavailable):
			writeError(w, http.StatusServiceUnavailable, "avatar storage unavailable")
		case errors.Is(err, storage.ErrObjectNotFound):
			writeError(w, http.StatusNotFound, "avatar not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to load avatar")
		}
		return
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	head, _ := br.Peek(512)
	w.Header().Set("Content-Type", http.DetectContentType(head))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, br)
}

func (h *ProfileHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.profileService.Activity(r.Context(), userID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list activity")
		return
	}

	writeJSON(w, http.StatusOK, ActivityListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

type ProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=128"`
	LastName  string `json:"last_name" validate:"max=128"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=64"`
	Bio       string `json:"bio" validate:"max=2000"`
	Company   string `json:"company" validate:"max=255"`
	Role      string `json:"role" validate:"max=255"`
	Location  string `json:"location" validate:"max=255"`
	Website   string `json:"website" validate:"omitempty,url"`
}

func (req *ProfileRequest) trim() {
	for _, field := range []*string{
		&req.FirstName, &req.LastName, &req.Email, &req.Phone, &req.Bio,
		&req.Company, &req.Role, &req.Location, &req.Website,
	} {
		*field = strings.TrimSpace(*field)
	}
}

func (req ProfileRequest) toProfile() types.Profile {
	return types.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Bio:       req.Bio,
		Company:   req.Company,
		JobTitle:  req.Role,
		Location:  req.Location,
		Website:   req.Website,
	}
}

type ProfileResponse struct {
	Profile types.Profile `json:"profile"`
	Stats   []types.Stat  `json:"stats"`
}

// ActivityListResponse is the paginated activity feed payload.
type ActivityListResponse struct {
	Items []types.Activity `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}
