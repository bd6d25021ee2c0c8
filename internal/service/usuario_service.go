package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"refrigas/internal/apierror"
	"refrigas/internal/dto"
	"refrigas/internal/model"
	"refrigas/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsuarioService manages the allow-list of people who may sign in.
type UsuarioService interface {
	Crear(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error)
	Listar(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
}

type usuarioService struct {
	repo repository.UsuarioRepository
}

func NewUsuarioService(repo repository.UsuarioRepository) UsuarioService {
	return &usuarioService{repo: repo}
}

func (s *usuarioService) Crear(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	u := &model.UsuarioAutorizado{
		Email:  req.Email,
		Nombre: strings.TrimSpace(req.Nombre),
		Rol:    req.Rol,
		Activo: true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("Ya existe un usuario autorizado con ese correo")
		}
		return nil, fmt.Errorf("crear usuario: %w", err)
	}
	resp := toUsuarioResponse(u)
	return &resp, nil
}

func (s *usuarioService) Obtener(ctx context.Context, id uuid.UUID) (*dto.UsuarioResponse, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Usuario no encontrado")
	}
	resp := toUsuarioResponse(u)
	return &resp, nil
}

func (s *usuarioService) Listar(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error) {
	var (
		users []model.UsuarioAutorizado
		err   error
	)
	if incluirInactivos {
		users, err = s.repo.ListAll(ctx)
	} else {
		users, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("listar usuarios: %w", err)
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = toUsuarioResponse(&users[i])
	}
	return resp, nil
}

func (s *usuarioService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Usuario no encontrado")
	}
	if req.Nombre != nil {
		u.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Rol != "" {
		u.Rol = req.Rol
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("actualizar usuario: %w", err)
	}
	resp := toUsuarioResponse(u)
	return &resp, nil
}

// Desactivar removes the user from the allow-list without deleting the row.
// Live sessions stop validating on their next request.
func (s *usuarioService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActivo(ctx, id, false); err != nil {
		return notFound(err, "Usuario no encontrado")
	}
	return nil
}

func (s *usuarioService) Reactivar(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActivo(ctx, id, true); err != nil {
		return notFound(err, "Usuario no encontrado")
	}
	return nil
}

func toUsuarioResponse(u *model.UsuarioAutorizado) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Nombre:    u.Nombre,
		Rol:       u.Rol,
		Activo:    u.Activo,
		CreatedAt: u.CreatedAt,
	}
}
