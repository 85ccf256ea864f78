package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fittrack-ar/fittrack/internal/auth"
	"github.com/fittrack-ar/fittrack/internal/middleware"
	"github.com/fittrack-ar/fittrack/internal/telemetry/metrics"
	"github.com/fittrack-ar/fittrack/internal/telemetry/tracing"
	"github.com/fittrack-ar/fittrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const birthDateLayout = "2006-01-02"

type usersRepo interface {
	Add(ctx context.Context, user User) (*User, error)
	Get(ctx context.Context, id int) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int) error
}

type loginService interface {
	Login(ctx context.Context, userID int) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.GoogleTokenInfo, error)
}

type Handler struct {
	repo           usersRepo
	authService    loginService
	googleVerifier googleVerifier
}

func NewHandler(
	repo usersRepo,
	authService loginService,
	googleVerifier googleVerifier,
) *Handler {
	return &Handler{
		repo:           repo,
		authService:    authService,
		googleVerifier: googleVerifier,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	loginRateLimitAllowedPerMin int,
) {
	mainRouter.HandleFunc("/users", handler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	mainRouter.HandleFunc("/users/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-user")
	mainRouter.HandleFunc("/users/{id}", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-user")
	mainRouter.HandleFunc("/users/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-user")

	loginSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	loginSubrouter.
		HandleFunc("/login", handler.HandleLogin).
		Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.
		HandleFunc("/logout", handler.HandleLogout).
		Methods("GET", "OPTIONS").Name("logout")
	loginSubrouter.
		HandleFunc("/google", handler.HandleGoogleLogin).
		Methods("POST", "OPTIONS").Name("google-login")

	// rate limit the login endpoints to prevent abuse
	loginSubrouter.Use(middleware.RateLimit(rateLimiter, "login", loginRateLimitAllowedPerMin, metricsManager))
	loginSubrouter.Use(middleware.Cors())
}

type registerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	BirthDate string `json:"birth_date"`
	Gender    string `json:"gender"`
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.register")
	defer span.End()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("register, unmarshal json params: %s", err)
		http.Error(w, "register failed", http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "error, name, email and password are required", http.StatusBadRequest)
		return
	}

	var birthDate *time.Time
	if req.BirthDate != "" {
		parsed, err := time.Parse(birthDateLayout, req.BirthDate)
		if err != nil {
			http.Error(w, "error, invalid birth_date, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		birthDate = &parsed
	}

	passwordHash, err := pkg.HashPassword(req.Password)
	if err != nil {
		log.Errorf("register, hash password: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	user := User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: passwordHash,
		BirthDate:    birthDate,
		AuthProvider: ProviderLocal,
	}
	if req.Gender != "" {
		user.Gender = &req.Gender
	}

	addedUser, err := handler.repo.Add(ctx, user)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			http.Error(w, "error, email already taken", http.StatusConflict)
			return
		}
		log.Errorf("register, add user: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.Int("user.id", addedUser.ID))

	userBytes, err := json.Marshal(addedUser)
	if err != nil {
		log.Errorf("register, marshal user: %s", err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, userBytes, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.get")
	defer span.End()

	id, ok := handler.ownUserID(w, r)
	if !ok {
		return
	}

	user, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("get user %d: %s", id, err)
		http.Error(w, "failed to get user", http.StatusInternalServerError)
		return
	}

	userBytes, err := json.Marshal(user)
	if err != nil {
		log.Errorf("get user, marshal: %s", err)
		http.Error(w, "failed to get user", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, userBytes)
}

type updateUserRequest struct {
	Name      *string `json:"name"`
	Password  *string `json:"password"`
	BirthDate *string `json:"birth_date"`
	Gender    *string `json:"gender"`
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.update")
	defer span.End()

	id, ok := handler.ownUserID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update user, unmarshal json params: %s", err)
		http.Error(w, "update failed", http.StatusBadRequest)
		return
	}

	user, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("update, get user %d: %s", id, err)
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}

	// google accounts keep name and credentials managed by google
	if user.AuthProvider == ProviderGoogle && (req.Name != nil || req.Password != nil) {
		http.Error(w, "error, google accounts can only change birth_date and gender", http.StatusBadRequest)
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			http.Error(w, "error, name empty", http.StatusBadRequest)
			return
		}
		user.Name = *req.Name
	}
	if req.Password != nil {
		passwordHash, err := pkg.HashPassword(*req.Password)
		if err != nil {
			log.Errorf("update user, hash password: %s", err)
			http.Error(w, "update failed", http.StatusInternalServerError)
			return
		}
		user.PasswordHash = passwordHash
	}
	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			user.BirthDate = nil
		} else {
			parsed, err := time.Parse(birthDateLayout, *req.BirthDate)
			if err != nil {
				http.Error(w, "error, invalid birth_date, use YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			user.BirthDate = &parsed
		}
	}
	if req.Gender != nil {
		user.Gender = req.Gender
	}

	if err := handler.repo.Update(ctx, user); err != nil {
		log.Errorf("update user %d: %s", id, err)
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}

	userBytes, err := json.Marshal(user)
	if err != nil {
		log.Errorf("update user, marshal: %s", err)
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, userBytes)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.delete")
	defer span.End()

	id, ok := handler.ownUserID(w, r)
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete user %d: %s", id, err)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var loginReq loginRequest
	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		log.Errorf("login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	if loginReq.Email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if loginReq.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	user, err := handler.repo.GetByEmail(ctx, strings.ToLower(loginReq.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Tracef("[email] failed login attempt for: %s", loginReq.Email)
			http.Error(w, "error, wrong credentials", http.StatusBadRequest)
			return
		}
		log.Errorf("login, get user: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	if user.AuthProvider != ProviderLocal || !pkg.CheckPasswordHash(loginReq.Password, user.PasswordHash) {
		log.Tracef("[password] failed login attempt for: %s", loginReq.Email)
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
		return
	}

	token, err := handler.authService.Login(ctx, user.ID)
	if err != nil {
		log.Errorf("login failed, generate token error: %s", err)
		http.Error(w, "generate token error", http.StatusInternalServerError)
		return
	}

	log.Trace("new login success")
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"token": "%s", "user_id": %d}`, token, user.ID))
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.authService.Logout(ctx, authToken)
	if err != nil {
		log.Tracef("[failed logout] => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	log.Printf("logout for [%s] success", authToken)
	pkg.WriteTextResponseOK(w, "logged-out")
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

func (handler *Handler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "usersHandler.googleLogin")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("google login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}
	if req.IDToken == "" {
		http.Error(w, "error, id_token empty", http.StatusBadRequest)
		return
	}

	tokenInfo, err := handler.googleVerifier.Verify(ctx, req.IDToken)
	if err != nil {
		log.Tracef("google login, token verify: %s", err)
		http.Error(w, "error, invalid google token", http.StatusUnauthorized)
		return
	}

	email := strings.ToLower(tokenInfo.Email)
	user, err := handler.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			log.Errorf("google login, get user: %s", err)
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}

		name := tokenInfo.Name
		if name == "" {
			name = email
		}
		user, err = handler.repo.Add(ctx, User{
			Name:         name,
			Email:        email,
			AuthProvider: ProviderGoogle,
		})
		if err != nil {
			log.Errorf("google login, create user: %s", err)
			http.Error(w, "login failed", http.StatusInternalServerError)
			return
		}
		log.Debugf("google login, created new user %d", user.ID)
	}

	token, err := handler.authService.Login(ctx, user.ID)
	if err != nil {
		log.Errorf("google login failed, generate token error: %s", err)
		http.Error(w, "generate token error", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"token": "%s", "user_id": %d}`, token, user.ID))
}

// ownUserID parses the path id and enforces that it matches the
// authenticated caller.
func (handler *Handler) ownUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	vars := mux.Vars(r)
	idStr := vars["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, invalid user id", http.StatusBadRequest)
		return 0, false
	}

	callerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return 0, false
	}
	if callerID != id {
		http.Error(w, "forbidden", http.StatusForbidden)
		return 0, false
	}

	return id, true
}
