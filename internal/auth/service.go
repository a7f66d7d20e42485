package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgauth "github.com/angelmondragon/wholesale-backend/pkg/auth"
	"github.com/angelmondragon/wholesale-backend/pkg/auth/session"
	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	minPasswordLength         = 6
)

// Service authenticates the single shared admin account.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	Authenticate(ctx context.Context, token string) (*pkgauth.AdminClaims, error)
	Check(ctx context.Context, token string) Status
	Logout(ctx context.Context, token string) error
	// ChangePassword stores a new password and ends every other session of
	// username; currentTokenID stays signed in.
	ChangePassword(ctx context.Context, username, currentTokenID string, req ChangePasswordRequest) error
}

type credentialStore interface {
	Find(ctx context.Context, username string) (*models.AdminCredential, error)
	Save(ctx context.Context, username, hash string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
// Credentials may be nil when no database is configured.
type ServiceParams struct {
	Admin       config.AdminConfig
	JWT         config.JWTConfig
	Password    config.PasswordConfig
	Sessions    session.Registry
	Credentials credentialStore
	Logger      *logger.Logger
}

type service struct {
	admin       config.AdminConfig
	jwtCfg      config.JWTConfig
	hasher      *security.Hasher
	sessions    session.Registry
	credentials credentialStore
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Sessions == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if strings.TrimSpace(params.Admin.User) == "" {
		return nil, fmt.Errorf("admin user is required")
	}
	if params.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		admin:       params.Admin,
		jwtCfg:      params.JWT,
		hasher:      security.NewHasher(params.Password),
		sessions:    params.Sessions,
		credentials: params.Credentials,
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	ok, err := s.verify(ctx, username, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logg.Warn(s.logg.WithAdmin(ctx, username), "admin login rejected")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	token, claims, err := pkgauth.MintAdminToken(s.jwtCfg, s.now(), username, "")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.sessions.Register(ctx, claims.ID, username, s.jwtCfg.TTL()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register admin session")
	}
	s.logg.Info(s.logg.WithAdmin(ctx, username), "admin logged in")
	return &Session{Token: token, Username: username, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Authenticate validates token and confirms its session has not been revoked.
func (s *service) Authenticate(ctx context.Context, token string) (*pkgauth.AdminClaims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	claims, err := pkgauth.ParseAdminToken(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session")
	}
	active, err := s.sessions.Active(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session registry unavailable")
	}
	if !active {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked")
	}
	return claims, nil
}

func (s *service) Check(ctx context.Context, token string) Status {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return Status{Authenticated: false}
	}
	return Status{Authenticated: true, Username: claims.Username}
}

// Logout revokes the token's session. Unparseable tokens are ignored.
func (s *service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	claims, err := pkgauth.ParseAdminToken(s.jwtCfg, token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke admin session")
	}
	s.logg.Info(s.logg.WithAdmin(ctx, claims.Username), "admin logged out")
	return nil
}

func (s *service) ChangePassword(ctx context.Context, username, currentTokenID string, req ChangePasswordRequest) error {
	if req.OldPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "all fields are required")
	}
	if req.NewPassword != req.ConfirmPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "new passwords do not match")
	}
	if len(req.NewPassword) < minPasswordLength {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "new password must be at least %d characters long", minPasswordLength)
	}
	if s.credentials == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "database connection required to change the admin password")
	}
	ok, err := s.verify(ctx, username, req.OldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect")
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.credentials.Save(ctx, username, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save admin credential")
	}
	logCtx := s.logg.WithAdmin(ctx, username)
	revoked, err := s.sessions.RevokeOthers(ctx, username, currentTokenID)
	if err != nil {
		s.logg.Error(logCtx, "revoke admin sessions after password change", err)
	}
	s.logg.Info(s.logg.WithField(logCtx, "revoked_sessions", revoked), "admin password changed")
	return nil
}

// verify checks password against the stored hash when one exists, otherwise
// against the configured environment password.
func (s *service) verify(ctx context.Context, username, password string) (bool, error) {
	if !security.EqualSecret(username, s.admin.User) {
		return false, nil
	}
	if s.credentials != nil {
		cred, err := s.credentials.Find(ctx, username)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load admin credential")
		}
		if cred != nil {
			ok, stale, err := s.hasher.Verify(password, cred.PasswordHash)
			if err != nil {
				return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
			}
			if ok && stale {
				s.rehash(ctx, username, password)
			}
			return ok, nil
		}
	}
	return security.EqualSecret(password, s.admin.Password), nil
}

// rehash upgrades a stored hash made with an older cost. Failures are logged
// and the login proceeds.
func (s *service) rehash(ctx context.Context, username, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.credentials.Save(ctx, username, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithAdmin(ctx, username), "error", err.Error()), "admin password rehash failed")
		return
	}
	s.logg.Info(s.logg.WithAdmin(ctx, username), "admin password rehashed with current cost")
}
