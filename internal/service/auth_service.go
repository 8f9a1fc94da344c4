package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urbanbyte/ishare/internal/auth"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrNoPassword indica que nenhum hash de senha foi configurado.
	ErrNoPassword = errors.New("nenhuma senha configurada")
)

const (
	SubjectOwner    = "owner"
	SubjectOperator = "operator"
)

// Credential associa um hash Argon2id a um sujeito e seus papéis.
type Credential struct {
	Subject string
	Hash    string
	Roles   []string
}

// OwnerCredential concede controle total, incluindo escrita de preferências.
func OwnerCredential(hash string) Credential {
	return Credential{Subject: SubjectOwner, Hash: hash, Roles: []string{auth.RoleSettingsOwner, auth.RoleOperator}}
}

// OperatorCredential permite capturar e enviar, sem alterar preferências.
func OperatorCredential(hash string) Credential {
	return Credential{Subject: SubjectOperator, Hash: hash, Roles: []string{auth.RoleOperator}}
}

// AuthService emite tokens para o daemon a partir de senhas locais.
type AuthService struct {
	credentials []Credential
	sessions    auth.SessionStore
	jwt         *auth.JWTManager
	refreshTTL  time.Duration
}

// NewAuthService cria novo serviço; credenciais sem hash são ignoradas.
func NewAuthService(jwtMgr *auth.JWTManager, sessions auth.SessionStore, refreshTTL time.Duration, credentials ...Credential) *AuthService {
	var usable []Credential
	for _, c := range credentials {
		if strings.TrimSpace(c.Hash) != "" {
			usable = append(usable, c)
		}
	}
	if sessions == nil {
		sessions = auth.NewMemorySessionStore()
	}
	return &AuthService{credentials: usable, sessions: sessions, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	Subject       string    `json:"subject"`
	Roles         []string  `json:"roles"`
	ExpiresIn     int64     `json:"expires_in"`
	RefreshExpiry time.Time `json:"refresh_expires_at"`
}

// Login verifica a senha contra cada credencial configurada.
func (s *AuthService) Login(ctx context.Context, password string) (*LoginResult, error) {
	if len(s.credentials) == 0 {
		return nil, ErrNoPassword
	}
	if password == "" {
		return nil, ErrInvalidCredentials
	}

	for _, cred := range s.credentials {
		ok, err := auth.Verify(password, cred.Hash)
		if err != nil {
			log.Warn().Err(err).Str("subject", cred.Subject).Msg("login: hash inválido")
			continue
		}
		if ok {
			return s.issue(ctx, auth.Session{Subject: cred.Subject, Roles: cred.Roles})
		}
	}

	log.Warn().Msg("login: senha inválida")
	return nil, ErrInvalidCredentials
}

// Refresh troca refresh token por novos tokens; o token usado é consumido.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}
	session, err := s.sessions.Take(ctx, auth.HashRefreshToken(rawToken))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefresh) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	return s.issue(ctx, session)
}

// Logout revoga refresh token atual.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	_, err := s.sessions.Take(ctx, auth.HashRefreshToken(strings.TrimSpace(rawToken)))
	if err != nil && !errors.Is(err, auth.ErrInvalidRefresh) {
		return err
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, session auth.Session) (*LoginResult, error) {
	access, _, err := s.jwt.GenerateAccessToken(session.Subject, session.Roles)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Put(ctx, refreshHash, session, s.refreshTTL); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   access,
		RefreshToken:  rawRefresh,
		Subject:       session.Subject,
		Roles:         session.Roles,
		ExpiresIn:     int64(s.jwt.AccessTTL().Seconds()),
		RefreshExpiry: time.Now().UTC().Add(s.refreshTTL),
	}, nil
}
