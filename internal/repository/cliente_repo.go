package repository

import (
	"context"

	"refrigas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	// FindConDeudas loads the customer with its debts and their payments.
	FindConDeudas(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	List(ctx context.Context, busqueda string) ([]model.Cliente, error)
	ListConDeudas(ctx context.Context) ([]model.Cliente, error)
	Update(ctx context.Context, c *model.Cliente) error
	DeleteCascade(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Omit("Deudas").Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) FindConDeudas(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).
		Preload("Deudas", func(db *gorm.DB) *gorm.DB { return db.Order("fecha DESC, created_at DESC") }).
		Preload("Deudas.Abonos").
		First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) List(ctx context.Context, busqueda string) ([]model.Cliente, error) {
	var clientes []model.Cliente
	q := r.db.WithContext(ctx).Order("nombre ASC")
	if busqueda != "" {
		like := "%" + busqueda + "%"
		q = q.Where("LOWER(nombre) LIKE LOWER(?) OR LOWER(correo) LIKE LOWER(?)", like, like)
	}
	err := q.Find(&clientes).Error
	return clientes, err
}

func (r *clienteRepo) ListConDeudas(ctx context.Context) ([]model.Cliente, error) {
	var clientes []model.Cliente
	err := r.db.WithContext(ctx).
		Preload("Deudas").
		Preload("Deudas.Abonos").
		Order("nombre ASC").
		Find(&clientes).Error
	return clientes, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Omit("Deudas").Save(c).Error
}

// DeleteCascade removes the customer together with its debts, their payments
// and the notifications pointing at any of them, in one transaction.
func (r *clienteRepo) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deudaIDs := tx.Model(&model.Deuda{}).Select("id").Where("cliente_id = ?", id)

		if err := tx.Where("cliente_id = ? OR deuda_id IN (?)", id, deudaIDs).
			Delete(&model.Notificacion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("deuda_id IN (?)", deudaIDs).Delete(&model.Abono{}).Error; err != nil {
			return err
		}
		if err := tx.Where("cliente_id = ?", id).Delete(&model.Deuda{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Cliente{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *clienteRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Cliente{}).Count(&n).Error
	return n, err
}
