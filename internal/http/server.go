package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Pranish03/student-backend/internal/auth"
	"github.com/Pranish03/student-backend/internal/config"
	"github.com/Pranish03/student-backend/internal/crypto"
	"github.com/Pranish03/student-backend/internal/mailer"
	"github.com/Pranish03/student-backend/internal/model"
	"github.com/Pranish03/student-backend/internal/ratelimit"
)

const sessionCookieName = "auth_token"

// UserStore is the credential-store contract the handlers run against.
// *repository.Store implements it; tests use an in-memory fake. Missing
// rows are reported as pgx.ErrNoRows.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (model.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// MailSender is the outbound-notification contract. Enqueue must not
// block and must not fail the calling request.
type MailSender interface {
	Enqueue(msg mailer.Message)
}

type Server struct {
	cfg     config.Config
	store   UserStore
	mail    MailSender
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

func NewServer(cfg config.Config, store UserStore, mail MailSender, limiter *ratelimit.Limiter, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		mail:    mail,
		limiter: limiter,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.With(s.rateLimit).Post("/login", s.handleLogin)
		r.With(s.rateLimit).Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password/{token}", s.handleResetPassword)
		r.With(s.authMiddleware).Post("/update-password", s.handleUpdatePassword)
		r.With(s.authMiddleware).Get("/me", s.handleGetMe)
		r.With(s.authMiddleware).Get("/logout", s.handleLogout)
	})

	r.Route("/users", func(r chi.Router) {
		r.With(s.authMiddleware, s.requireRole(model.RoleAdmin)).Post("/", s.handleCreateUser)
		r.With(s.authMiddleware, s.requireRole(model.RoleAdmin, model.RoleTeacher)).Get("/{userID}", s.handleGetUser)
	})

	return r
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func mapUserResponse(user model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = normalizeEmail(req.Email)

	errs := fieldErrors{}
	validateEmailField(errs, "email", req.Email)
	validatePasswordField(errs, "password", req.Password)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			loginFailures.Inc()
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.serverError(w, r, err)
		return
	}

	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		loginFailures.Inc()
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.IsActive {
		writeMessage(w, http.StatusForbidden, "Account is inactive")
		return
	}

	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.SessionTTL, auth.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.setSessionCookie(w, token)
	loginSuccesses.Inc()
	writeData(w, http.StatusOK, "Logged in successfully", mapUserResponse(user))
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = normalizeEmail(req.Email)

	errs := fieldErrors{}
	validateEmailField(errs, "email", req.Email)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		s.serverError(w, r, err)
		return
	}

	token, err := crypto.NewResetToken()
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	expiresAt := s.now().Add(s.cfg.ResetTokenTTL)
	if err := s.store.SetResetToken(r.Context(), user.ID, crypto.HashToken(token), expiresAt); err != nil {
		s.serverError(w, r, err)
		return
	}

	if s.cfg.Development() {
		s.logger.Info("password reset token issued", "token", token)
	}

	passwordResets.Inc()
	s.sendMail(user.Email, "Reset Your Password", func() (string, error) {
		return mailer.ResetPasswordEmail(user.Name, s.cfg.ClientURL+"/reset-password/"+token, s.cfg.ResetTokenTTL)
	})

	writeMessage(w, http.StatusOK, "Password reset link sent to your email")
}

type resetPasswordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := fieldErrors{}
	validateResetTokenField(errs, "token", token)
	validatePasswordField(errs, "password", req.Password)
	validateConfirmField(errs, "confirm", req.Password, req.Confirm)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	newHash, err := crypto.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	// Token match, expiry check, password write, and token clearing are a
	// single store operation. A concurrent submission of the same token
	// loses the race and lands in the ErrNoRows branch below.
	user, err := s.store.ConsumeResetToken(r.Context(), crypto.HashToken(token), newHash, s.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.sendMail(user.Email, "Password Reset Successful", func() (string, error) {
		return mailer.ResetSuccessEmail(user.Name, s.cfg.ClientURL)
	})

	writeMessage(w, http.StatusOK, "Password changed successfully")
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmNew      string `json:"confirmNew"`
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}

	var req updatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	errs := fieldErrors{}
	if req.CurrentPassword == "" {
		errs["currentPassword"] = "Current password is required"
	}
	validatePasswordField(errs, "newPassword", req.NewPassword)
	validateConfirmField(errs, "confirmNew", req.NewPassword, req.ConfirmNew)
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	if err := crypto.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	if err := crypto.CheckPassword(user.PasswordHash, req.NewPassword); err == nil {
		writeMessage(w, http.StatusBadRequest, "New password must be different from current password")
		return
	}

	newHash, err := crypto.HashPassword(req.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if err := s.store.UpdatePassword(r.Context(), user.ID, newHash); err != nil {
		s.serverError(w, r, err)
		return
	}

	// Force re-authentication with the new credential.
	s.clearSessionCookie(w)

	s.sendMail(user.Email, "Password Update Successful", func() (string, error) {
		return mailer.PasswordUpdatedEmail(user.Name, s.cfg.ClientURL)
	})

	writeMessage(w, http.StatusOK, "Password updated successfully")
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	writeData(w, http.StatusOK, "You are logged in", mapUserResponse(*user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if userFromContext(r.Context()) == nil {
		writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	s.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	errs := fieldErrors{}
	if req.Name == "" {
		errs["name"] = "Name is required"
	}
	validateEmailField(errs, "email", req.Email)
	role, ok := model.ParseRole(strings.TrimSpace(strings.ToLower(req.Role)))
	if !ok {
		errs["role"] = "Role must be one of student, teacher, admin"
	}
	if len(errs) > 0 {
		writeValidationError(w, errs)
		return
	}

	if _, err := s.store.GetUserByEmail(r.Context(), req.Email); err == nil {
		writeMessage(w, http.StatusBadRequest, "Email already taken")
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		s.serverError(w, r, err)
		return
	}

	password, err := crypto.GeneratePassword(12)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if s.cfg.Development() {
		s.logger.Info("initial password generated", "email", req.Email, "password", password)
	}

	hash, err := crypto.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	now := s.now()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.serverError(w, r, err)
		return
	}

	s.sendMail(user.Email, "Your Account Has Been Created", func() (string, error) {
		return mailer.UserCreatedEmail(user.Name, user.Email, password, s.cfg.ClientURL)
	})

	writeData(w, http.StatusCreated, "User created successfully", mapUserResponse(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if _, err := uuid.Parse(userID); err != nil {
		writeValidationError(w, fieldErrors{"id": "Invalid user id"})
		return
	}

	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeMessage(w, http.StatusNotFound, "User not found")
			return
		}
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": mapUserResponse(user)})
}

// authMiddleware is the authentication gate: session cookie -> token
// verification -> fresh user load. Every failure collapses to 401 without
// revealing which check tripped.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, cookie.Value)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, invalid token")
			return
		}

		// Fresh load: stale claims must not outlive deactivation or
		// deletion of the account.
		user, err := s.store.GetUserByID(r.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole is the authorization gate. It must be composed after
// authMiddleware; an absent user means the route was wired wrong and the
// request is refused outright.
func (s *Server) requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := userFromContext(r.Context())
			if user == nil {
				writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeMessage(w, http.StatusForbidden, "Forbidden")
		})
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "auth:" + clientIP(r)
		allowed, err := s.limiter.Allow(r.Context(), key)
		if err != nil {
			s.logger.Warn("rate limiter unavailable", "error", err)
		}
		if !allowed {
			writeMessage(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)

		level := slog.LevelInfo
		if wrapped.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", sanitizePath(r.URL.Path),
			"status", wrapped.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type userKey struct{}

func userFromContext(ctx context.Context) *model.User {
	value := ctx.Value(userKey{})
	user, _ := value.(*model.User)
	return user
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   !s.cfg.Development(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !s.cfg.Development(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) sendMail(to, subject string, render func() (string, error)) {
	html, err := render()
	if err != nil {
		s.logger.Error("mail template render failed", "subject", subject, "error", err)
		return
	}
	s.mail.Enqueue(mailer.Message{To: to, Subject: subject, HTML: html})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal error",
		"method", r.Method,
		"path", sanitizePath(r.URL.Path),
		"error", err,
	)
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}

type fieldErrors map[string]string

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var resetTokenPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

func validateEmailField(errs fieldErrors, field, email string) {
	if !emailPattern.MatchString(email) {
		errs[field] = "Invalid email address"
	}
}

func validatePasswordField(errs fieldErrors, field, password string) {
	if len(password) < 8 {
		errs[field] = "Password must have at least 8 characters"
	}
}

func validateConfirmField(errs fieldErrors, field, password, confirm string) {
	if confirm != password {
		errs[field] = "Passwords do not match"
	}
}

func validateResetTokenField(errs fieldErrors, field, token string) {
	if !resetTokenPattern.MatchString(token) {
		errs[field] = "Invalid reset token format"
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// sanitizePath hides reset tokens carried in the URL path.
func sanitizePath(path string) string {
	const prefix = "/auth/reset-password/"
	if strings.HasPrefix(path, prefix) {
		return prefix + "***"
	}
	return path
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeData(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"message": message, "data": data})
}

func writeValidationError(w http.ResponseWriter, errs fieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"message": "Validation failed",
		"errors":  errs,
	})
}
