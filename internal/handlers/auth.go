package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nexus-dash/apiserver/internal/services"
	"github.com/nexus-dash/apiserver/internal/store"
	"github.com/nexus-dash/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 24 * time.Hour
const defaultAccountRole = "member"

const (
	anonymousName  = "User"
	anonymousEmail = "user@example.com"
)

// NavItem is an entry of the sidebar navigation.
type NavItem struct {
	Path  string `json:"path"`
	Icon  string `json:"icon"`
	Label string `json:"label"`
}

var navigation = []NavItem{
	{Path: "/dashboard", Icon: "📊", Label: "Dashboard"},
	{Path: "/analytics", Icon: "📈", Label: "Analytics"},
	{Path: "/users", Icon: "👥", Label: "Users"},
	{Path: "/settings", Icon: "⚙️", Label: "Settings"},
	{Path: "/profile", Icon: "👤", Label: "Profile"},
}

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	accountService  *services.AccountService
	settingsService *services.SettingsService
	validate        *validator.Validate
	secret          []byte
	tokenTTL        time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(accountService *services.AccountService, settingsService *services.SettingsService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		accountService:  accountService,
		settingsService: settingsService,
		validate:        validator.New(),
		secret:          []byte(jwtSecret),
		tokenTTL:        defaultTokenTTL,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(
	r chi.Router,
	accountService *services.AccountService,
	settingsService *services.SettingsService,
	jwtSecret string,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewAuthHandler(accountService, settingsService, jwtSecret)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Get("/session", handler.Session)
	r.With(authMiddleware).Get("/me", handler.Me)
	r.With(authMiddleware).Delete("/me", handler.DeleteMe)
}

// RequireAuth constructs auth middleware. Browsers without a valid session
// are sent to signInURL; other callers get 401.
func RequireAuth(jwtSecret, signInURL string) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret), signInURL)
}

func requireAuth(secret []byte, signInURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := subjectFromRequest(r, secret)
			if err != nil {
				if signInURL != "" && wantsHTML(r) {
					http.Redirect(w, r, signInURL, http.StatusSeeOther)
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Register creates a new account and returns a JWT.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.accountService.GetByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusConflict, "username already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to check account")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	account, err := h.accountService.Create(r.Context(), types.Account{
		Username:     req.Username,
		Email:        req.Email,
		Name:         req.Name,
		Role:         defaultAccountRole,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "username or email already in use")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	token, err := issueToken(account.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, Account: account})
}

// Login verifies credentials and returns a JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, h.validate, &req); err != nil {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	account, err := h.accountService.GetByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := issueToken(account.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, Account: account})
}

// Session describes the caller for the navbar and sidebar. It never fails;
// anonymous callers get the fallback identity.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	resp := SessionResponse{
		Principal:  Principal{Name: anonymousName, Email: anonymousEmail},
		Navigation: navigation,
	}

	if subject, err := subjectFromRequest(r, h.secret); err == nil {
		if id, err := strconv.Atoi(subject); err == nil {
			if account, err := h.accountService.GetByID(r.Context(), id); err == nil {
				resp.Principal = principalOf(account)
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me returns the current authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := currentAccount(w, r, h.accountService)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// DeleteMe removes the current account and everything attached to it.
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.accountService.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}
	h.settingsService.Forget(userID)

	w.WriteHeader(http.StatusNoContent)
}

// Principal is the identity shown by the dashboard chrome.
type Principal struct {
	SignedIn bool   `json:"signed_in"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func principalOf(account types.Account) Principal {
	p := Principal{SignedIn: true, Name: account.Name, Email: account.Email}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = anonymousName
	}
	if strings.TrimSpace(p.Email) == "" {
		p.Email = anonymousEmail
	}
	return p
}

// currentAccount loads the account of the authenticated caller. It writes
// the error response and reports false when there is none.
func currentAccount(w http.ResponseWriter, r *http.Request, accounts *services.AccountService) (types.Account, bool) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.Account{}, false
	}

	account, err := accounts.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return types.Account{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return types.Account{}, false
	}
	return account, true
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

func (req *RegisterRequest) trim() {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token   string        `json:"token"`
	Account types.Account `json:"account"`
}

type SessionResponse struct {
	Principal
	Navigation []NavItem `json:"navigation"`
}

func issueToken(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func subjectFromRequest(r *http.Request, secret []byte) (string, error) {
	tokenString, err := bearerToken(r)
	if err != nil {
		return "", err
	}
	return parseTokenSubject(tokenString, secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
