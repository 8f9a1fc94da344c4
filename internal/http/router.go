package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/urbanbyte/ishare/internal/capture"
	"github.com/urbanbyte/ishare/internal/config"
	"github.com/urbanbyte/ishare/internal/history"
	httpmiddleware "github.com/urbanbyte/ishare/internal/http/middleware"
	"github.com/urbanbyte/ishare/internal/service"
	"github.com/urbanbyte/ishare/internal/settings"
	"github.com/urbanbyte/ishare/internal/toast"
)

// Pipeline é a parte do pipeline exposta pela API.
type Pipeline interface {
	Submit(ctx context.Context, path string) (capture.Artifact, error)
	Capture(ctx context.Context, mode capture.Mode) (capture.Artifact, error)
	Upload(ctx context.Context, artifactID uuid.UUID) (capture.Artifact, error)
	Artifact(id uuid.UUID) (capture.Artifact, bool)
}

// Toasts expõe interação com os toasts ativos.
type Toasts interface {
	Snapshot() []toast.View
	Activate(ctx context.Context, id uuid.UUID) (bool, error)
	BeginDrag(id uuid.UUID) (toast.DragPayload, error)
	EndDrag(id uuid.UUID) error
}

// Deps reúne o que o roteador precisa. Settings é o *Store: os handlers de
// preferências são o dono designado das escritas. Checks alimenta o /ready.
type Deps struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Auth     *service.AuthService
	Settings *settings.Store
	Pipeline Pipeline
	Toasts   Toasts
	History  history.Recorder
	Checks   map[string]func(ctx context.Context) error
}

type Handler struct {
	cfg           *config.Config
	authService   *service.AuthService
	settings      *settings.Store
	pipeline      Pipeline
	toasts        Toasts
	history       history.Recorder
	checks        map[string]func(ctx context.Context) error
	publicLimiter *httpmiddleware.Throttle
	loginLimiter  *httpmiddleware.Throttle
	authLimiter   *httpmiddleware.Throttle
}

// NewRouter devolve roteador configurado.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	h := &Handler{
		cfg:           cfg,
		authService:   deps.Auth,
		settings:      deps.Settings,
		pipeline:      deps.Pipeline,
		toasts:        deps.Toasts,
		history:       deps.History,
		checks:        deps.Checks,
		publicLimiter: httpmiddleware.NewThrottle(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		loginLimiter:  httpmiddleware.NewThrottle(cfg.RateLimitLogin.RequestsPerSecond, cfg.RateLimitLogin.Burst),
		authLimiter:   httpmiddleware.NewThrottle(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(httpmiddleware.Logging(deps.Logger))
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.ByRemoteIP(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)
		public.Post("/auth/logout", h.Logout)

		// tentativas de senha têm orçamento próprio, bem menor
		public.With(httpmiddleware.ByRemoteIP(h.loginLimiter)).Post("/auth/token", h.Login)
		public.With(httpmiddleware.ByRemoteIP(h.loginLimiter)).Post("/auth/refresh", h.Refresh)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(h.authService.JWT()))
		private.Use(httpmiddleware.BySubject(h.authLimiter))

		private.Route("/settings", func(s chi.Router) {
			s.Get("/", h.ListSettings)
			s.Get("/export", h.ExportSettings)
			s.Get("/{key}", h.GetSetting)

			s.Group(func(owner chi.Router) {
				owner.Use(httpmiddleware.RequireSettingsOwner)
				owner.Put("/{key}", h.SetSetting)
				owner.Delete("/{key}", h.ResetSetting)
				owner.Post("/import", h.ImportSettings)
				owner.Post("/reset", h.ResetAllSettings)
			})
		})

		private.Route("/captures", func(c chi.Router) {
			c.With(httpmiddleware.LocalOnly).Post("/", h.SubmitCapture)
			c.Post("/shoot", h.ShootCapture)
			c.Get("/{id}", h.GetCapture)
			c.Post("/{id}/upload", h.UploadCapture)
		})

		private.Route("/toasts", func(t chi.Router) {
			t.Get("/", h.ListToasts)
			t.Post("/{id}/activate", h.ActivateToast)
			t.Post("/{id}/drag", h.BeginDrag)
			t.Delete("/{id}/drag", h.EndDrag)
		})

		private.Get("/history", h.ListHistory)
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida as dependências configuradas (Postgres, Redis).
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failures := map[string]any{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		WriteError(w, http.StatusServiceUnavailable, CodeUnavailable, "dependências indisponíveis", failures)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// Login troca a senha local por tokens.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Password) == "" {
		WriteError(w, http.StatusBadRequest, CodeValidation, "password é obrigatório", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Refresh renova a sessão consumindo o refresh token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.RefreshToken) == "" {
		WriteError(w, http.StatusUnauthorized, CodeAuth, "refresh ausente", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Logout revoga refresh token atual.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && payload.RefreshToken != "" {
		if err := h.authService.Logout(r.Context(), payload.RefreshToken); err != nil {
			WriteError(w, http.StatusInternalServerError, CodeInternal, "erro ao encerrar sessão", nil)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, CodeAuth, err.Error(), nil)
	case errors.Is(err, service.ErrRefreshInvalid):
		WriteError(w, http.StatusUnauthorized, CodeAuth, "refresh inválido", nil)
	case errors.Is(err, service.ErrNoPassword):
		WriteError(w, http.StatusServiceUnavailable, CodeUnavailable, err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, CodeInternal, "erro ao autenticar", nil)
	}
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, name+" inválido", nil)
		return uuid.Nil, false
	}
	return id, true
}
