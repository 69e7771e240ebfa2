package supabasedb

import (
	"context"
	"strings"
	"time"

	"cancha/internal/domain"
	"cancha/internal/models"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

type userRow struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"nombre"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"rol"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

func (r userRow) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Role:         models.Role(r.Role),
		CreatedAt:    parseTimestamp(r.CreatedAt),
		UpdatedAt:    parseTimestamp(r.UpdatedAt),
	}
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	row := userRow{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    formatTimestamp(now),
		UpdatedAt:    formatTimestamp(now),
	}
	if _, _, err := s.from(UsersTable).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return translate(err, "create user", domain.ErrDuplicateEmail)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.from(UsersTable).Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, translate(err, "list users", nil)
	}
	rows, err := decode[userRow](data, "users")
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toModel())
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	user.UpdatedAt = time.Now()
	data, _, err := s.from(UsersTable).Update(map[string]any{
		"nombre":        user.Name,
		"password_hash": user.PasswordHash,
		"rol":           string(user.Role),
		"updated_at":    formatTimestamp(user.UpdatedAt),
	}, "representation", "").Eq("id", user.ID).Execute()
	if err != nil {
		return translate(err, "update user", nil)
	}
	rows, err := decode[userRow](data, "updated user")
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, column, value string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.from(UsersTable).Select("*", "", false).Eq(column, value).Limit(1, "").Execute()
	if err != nil {
		return nil, translate(err, "get user", nil)
	}
	rows, err := decode[userRow](data, "user")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0].toModel(), nil
}
