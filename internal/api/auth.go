package api

import (
	"context"
	"net/http"
	"strings"

	"cancha/internal/models"
	"cancha/internal/service"
)

type ctxKey int

const userKey ctxKey = iota

const msgForbidden = "No tienes permisos para realizar esta acción"

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// userFromContext returns the authenticated user, or nil on public routes.
func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

func actorID(ctx context.Context) string {
	if user := userFromContext(ctx); user != nil {
		return user.ID
	}
	return ""
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// authenticate resolves the bearer token to a user before calling next.
func (s *HTTPServer) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.svc.Auth.Verify(r.Context(), bearerToken(r))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		next(w, r.WithContext(withUser(r.Context(), user)))
	}
}

func (s *HTTPServer) requireRole(roles ...models.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return s.authenticate(func(w http.ResponseWriter, r *http.Request) {
			user := userFromContext(r.Context())
			for _, role := range roles {
				if user.Role == role {
					next(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, msgForbidden)
		})
	}
}

func (s *HTTPServer) staff(next http.HandlerFunc) http.HandlerFunc {
	return s.requireRole(models.RoleAdmin, models.RoleOperator)(next)
}

func (s *HTTPServer) admin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireRole(models.RoleAdmin)(next)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleVerify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"usuario": userFromContext(r.Context())})
}

// handleRegister is public; a bearer token, when present, identifies the
// admin creating a staff account.
func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var actor *models.User
	if token := bearerToken(r); token != "" {
		user, err := s.svc.Auth.Verify(r.Context(), token)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		actor = user
	}

	user, err := s.svc.Auth.Register(r.Context(), req, actor)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Usuario creado exitosamente",
		"usuario": user,
	})
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Auth.ListUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"usuarios": users})
}

type roleRequest struct {
	Role string `json:"rol"`
}

func (s *HTTPServer) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.svc.Auth.ChangeRole(r.Context(), r.PathValue("id"), req.Role, userFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Rol actualizado exitosamente",
		"usuario": user,
	})
}
