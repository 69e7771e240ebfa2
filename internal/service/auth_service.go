package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"cancha/internal/config"
	"cancha/internal/domain"
	"cancha/internal/metrics"
	"cancha/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	minSecretLength = 32

	msgInvalidCredentials = "Credenciales inválidas"
	msgInvalidToken       = "Token inválido"
	msgUserNotFound       = "Usuario no encontrado"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"rol"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"usuario"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"nombre"`
	Password string `json:"password"`
	Role     string `json:"rol"`
}

type registerFields struct {
	Email    string `validate:"required,email,max=254"`
	Name     string `validate:"required,min=2,max=100"`
	Password string `validate:"required,min=8,max=72"`
}

// AuthService issues and verifies tokens and manages staff accounts.
type AuthService struct {
	users   domain.UserRepository
	limiter domain.RateLimitRepository
	cfg     config.AuthConfig
	now     func() time.Time
	logger  *zerolog.Logger
}

func NewAuthService(users domain.UserRepository, limiter domain.RateLimitRepository, cfg config.AuthConfig, logger *zerolog.Logger) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.LoginAttempts <= 0 {
		cfg.LoginAttempts = 5
	}
	if cfg.LoginWindow <= 0 {
		cfg.LoginWindow = 15 * time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AuthService{
		users:   users,
		limiter: limiter,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger,
	}
}

// secret is read per request so a missing secret only disables auth.
func (s *AuthService) secret() ([]byte, error) {
	secret := s.cfg.JWTSecret
	if secret == "" {
		return nil, &Error{Kind: KindUnavailable, Message: "JWT_SECRET no está configurada. Define JWT_SECRET en tu archivo .env o variables de entorno del despliegue."}
	}
	if len(secret) < minSecretLength {
		return nil, &Error{Kind: KindUnavailable, Message: "JWT_SECRET es débil. Usa una cadena de al menos 32 caracteres."}
	}
	return []byte(secret), nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, validationError("Email y contraseña requeridos")
	}
	secret, err := s.secret()
	if err != nil {
		return nil, err
	}

	throttleKey := "login:" + email
	if s.limiter != nil {
		allowed, err := s.limiter.CheckRateLimit(ctx, throttleKey, s.cfg.LoginAttempts, s.cfg.LoginWindow)
		if err != nil {
			s.logger.Warn().Err(err).Msg("login throttle unavailable")
		} else if !allowed {
			metrics.IncLoginFailure()
			return nil, &Error{Kind: KindRateLimited, Message: "Demasiados intentos de inicio de sesión. Intenta de nuevo más tarde."}
		}
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncLoginFailure()
			return nil, &Error{Kind: KindUnauthorized, Message: msgInvalidCredentials}
		}
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, storeError(err, "", "")
		}
		s.logger.Error().Err(err).Msg("lookup user for login")
		return nil, &Error{Kind: KindUnavailable, Message: "Servicio de autenticación no disponible", Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.IncLoginFailure()
		s.logger.Info().Str("email", email).Msg("login rejected")
		return nil, &Error{Kind: KindUnauthorized, Message: msgInvalidCredentials}
	}

	if s.limiter != nil {
		if err := s.limiter.ResetRateLimit(ctx, throttleKey); err != nil {
			s.logger.Warn().Err(err).Msg("reset login throttle")
		}
	}

	token, err := s.issue(user, secret)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "Error al iniciar sesión", Err: err}
	}
	return &LoginResult{Token: token, User: user}, nil
}

func (s *AuthService) issue(user *models.User, secret []byte) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify resolves a bearer token to its current user record.
func (s *AuthService) Verify(ctx context.Context, token string) (*models.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &Error{Kind: KindUnauthorized, Message: "Token no proporcionado"}
	}
	secret, err := s.secret()
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &Error{Kind: KindUnauthorized, Message: msgInvalidToken, Err: err}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return nil, &Error{Kind: KindUnauthorized, Message: msgInvalidToken}
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &Error{Kind: KindUnauthorized, Message: msgUserNotFound}
		}
		return nil, storeError(err, "", "Servicio de autenticación no disponible")
	}
	return user, nil
}

// Register creates a user. Only an admin may create non-public accounts.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, actor *models.User) (*models.User, error) {
	fields := registerFields{
		Email:    strings.ToLower(sanitize(req.Email)),
		Name:     sanitize(req.Name),
		Password: req.Password,
	}
	if fields.Email == "" || fields.Name == "" || fields.Password == "" {
		return nil, validationError("Datos incompletos")
	}
	if err := checkStruct(fields); err != nil {
		return nil, err
	}

	role := models.RolePublic
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			return nil, validationError("Rol inválido")
		}
		role = parsed
	}
	if role != models.RolePublic && (actor == nil || actor.Role != models.RoleAdmin) {
		return nil, &Error{Kind: KindForbidden, Message: "Solo un administrador puede crear usuarios con rol " + string(role)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(fields.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "Error al crear usuario", Err: err}
	}

	user := &models.User{
		Email:        fields.Email,
		Name:         fields.Name,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, validationError("El email ya está registrado")
		}
		return nil, storeError(err, "", "Error al crear usuario")
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user registered")
	return user, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err, "", "Error al obtener usuarios")
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

func (s *AuthService) ChangeRole(ctx context.Context, id, role string, actor *models.User) (*models.User, error) {
	next, err := models.ParseRole(role)
	if err != nil {
		return nil, validationError("Rol inválido")
	}
	if actor != nil && actor.ID == id && next != models.RoleAdmin {
		return nil, validationError("No puedes quitarte el rol de administrador")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgUserNotFound, "Error al obtener usuario")
	}
	if user.Role == next {
		return user, nil
	}
	user.Role = next
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, storeError(err, msgUserNotFound, "Error al actualizar el rol")
	}
	s.logger.Info().Str("user_id", id).Str("role", string(next)).Msg("user role changed")
	return user, nil
}

// EnsureAdmin creates the bootstrap admin from config, or repairs its role,
// password and name when they drifted. No credentials means nothing to do.
func (s *AuthService) EnsureAdmin(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(s.cfg.AdminEmail))
	password := s.cfg.AdminPassword
	if email == "" || password == "" {
		return nil
	}
	name := s.cfg.AdminName
	if name == "" {
		name = "Administrador"
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if user == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
		if err != nil {
			return err
		}
		if err := s.users.CreateUser(ctx, &models.User{
			Email:        email,
			Name:         name,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
		}); err != nil {
			return err
		}
		s.logger.Info().Str("email", email).Msg("bootstrap admin created")
		return nil
	}

	changed := false
	if user.Role != models.RoleAdmin {
		user.Role = models.RoleAdmin
		changed = true
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
		if err != nil {
			return err
		}
		user.PasswordHash = string(hash)
		changed = true
	}
	if user.Name != name {
		user.Name = name
		changed = true
	}
	if !changed {
		return nil
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.logger.Info().Str("email", email).Msg("bootstrap admin updated")
	return nil
}
