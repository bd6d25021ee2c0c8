package repository

import (
	"context"
	"strings"

	"refrigas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UsuarioRepository interface {
	Create(ctx context.Context, u *model.UsuarioAutorizado) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UsuarioAutorizado, error)
	// FindActivoByEmail matches case-insensitively and only active entries.
	FindActivoByEmail(ctx context.Context, email string) (*model.UsuarioAutorizado, error)
	List(ctx context.Context) ([]model.UsuarioAutorizado, error)
	ListAll(ctx context.Context) ([]model.UsuarioAutorizado, error)
	ListAdministradoresActivos(ctx context.Context) ([]model.UsuarioAutorizado, error)
	Update(ctx context.Context, u *model.UsuarioAutorizado) error
	SetActivo(ctx context.Context, id uuid.UUID, activo bool) error
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) Create(ctx context.Context, u *model.UsuarioAutorizado) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.UsuarioAutorizado, error) {
	var u model.UsuarioAutorizado
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *usuarioRepo) FindActivoByEmail(ctx context.Context, email string) (*model.UsuarioAutorizado, error) {
	var u model.UsuarioAutorizado
	err := r.db.WithContext(ctx).
		Where("email = ? AND activo = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&u).Error
	return &u, err
}

func (r *usuarioRepo) List(ctx context.Context) ([]model.UsuarioAutorizado, error) {
	var users []model.UsuarioAutorizado
	err := r.db.WithContext(ctx).Where("activo = ?", true).Order("email ASC").Find(&users).Error
	return users, err
}

func (r *usuarioRepo) ListAll(ctx context.Context) ([]model.UsuarioAutorizado, error) {
	var users []model.UsuarioAutorizado
	err := r.db.WithContext(ctx).Order("email ASC").Find(&users).Error
	return users, err
}

func (r *usuarioRepo) ListAdministradoresActivos(ctx context.Context) ([]model.UsuarioAutorizado, error) {
	var users []model.UsuarioAutorizado
	err := r.db.WithContext(ctx).
		Where("rol = ? AND activo = ? AND email <> ''", model.RolAdministrador, true).
		Order("email ASC").
		Find(&users).Error
	return users, err
}

func (r *usuarioRepo) Update(ctx context.Context, u *model.UsuarioAutorizado) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *usuarioRepo) SetActivo(ctx context.Context, id uuid.UUID, activo bool) error {
	res := r.db.WithContext(ctx).Model(&model.UsuarioAutorizado{}).Where("id = ?", id).Update("activo", activo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
