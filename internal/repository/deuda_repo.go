package repository

import (
	"context"

	"refrigas/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeudaFiltro narrows debt listings. Nil fields do not filter.
type DeudaFiltro struct {
	ClienteID   *uuid.UUID
	Pagada      *bool
	FechaInicio *datatypes.Date
	FechaFin    *datatypes.Date
}

type DeudaRepository interface {
	// DB exposes the connection so services can open transactions.
	DB() *gorm.DB
	Create(ctx context.Context, d *model.Deuda) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Deuda, error)
	List(ctx context.Context, f DeudaFiltro) ([]model.Deuda, error)
	ListNoPagadas(ctx context.Context) ([]model.Deuda, error)
	SetPagada(ctx context.Context, id uuid.UUID) error

	// FindForUpdateTx loads the debt and its payments holding a row lock
	// on the debt until tx ends.
	FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Deuda, error)
	CreateAbonoTx(tx *gorm.DB, a *model.Abono) error
	SetPagadaTx(tx *gorm.DB, id uuid.UUID, pagada bool) error

	ListAbonos(ctx context.Context, deudaID uuid.UUID) ([]model.Abono, error)
	ListAbonosEntre(ctx context.Context, desde, hasta *datatypes.Date) ([]model.Abono, error)
}

type deudaRepo struct{ db *gorm.DB }

func NewDeudaRepository(db *gorm.DB) DeudaRepository { return &deudaRepo{db: db} }

func (r *deudaRepo) DB() *gorm.DB { return r.db }

func (r *deudaRepo) Create(ctx context.Context, d *model.Deuda) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error
}

func (r *deudaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Deuda, error) {
	var d model.Deuda
	err := r.db.WithContext(ctx).
		Preload("Cliente").
		Preload("Abonos", func(db *gorm.DB) *gorm.DB { return db.Order("fecha ASC, created_at ASC") }).
		First(&d, "id = ?", id).Error
	return &d, err
}

func (r *deudaRepo) List(ctx context.Context, f DeudaFiltro) ([]model.Deuda, error) {
	q := r.db.WithContext(ctx).Preload("Cliente").Preload("Abonos")
	if f.ClienteID != nil {
		q = q.Where("cliente_id = ?", *f.ClienteID)
	}
	if f.Pagada != nil {
		q = q.Where("pagada = ?", *f.Pagada)
	}
	if f.FechaInicio != nil {
		q = q.Where("fecha >= ?", *f.FechaInicio)
	}
	if f.FechaFin != nil {
		q = q.Where("fecha <= ?", *f.FechaFin)
	}
	var deudas []model.Deuda
	err := q.Order("fecha DESC, created_at DESC").Find(&deudas).Error
	return deudas, err
}

// ListNoPagadas returns unpaid debts that have a due date, the only candidates
// for being overdue.
func (r *deudaRepo) ListNoPagadas(ctx context.Context) ([]model.Deuda, error) {
	var deudas []model.Deuda
	err := r.db.WithContext(ctx).
		Preload("Cliente").
		Preload("Abonos").
		Where("pagada = ? AND fecha_vencimiento IS NOT NULL", false).
		Order("fecha_vencimiento ASC").
		Find(&deudas).Error
	return deudas, err
}

func (r *deudaRepo) SetPagada(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Deuda{}).Where("id = ?", id).Update("pagada", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *deudaRepo) FindForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Deuda, error) {
	var d model.Deuda
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("deuda_id = ?", id).Order("created_at ASC").Find(&d.Abonos).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deudaRepo) CreateAbonoTx(tx *gorm.DB, a *model.Abono) error {
	return tx.Omit(clause.Associations).Create(a).Error
}

func (r *deudaRepo) SetPagadaTx(tx *gorm.DB, id uuid.UUID, pagada bool) error {
	return tx.Model(&model.Deuda{}).Where("id = ?", id).Update("pagada", pagada).Error
}

func (r *deudaRepo) ListAbonos(ctx context.Context, deudaID uuid.UUID) ([]model.Abono, error) {
	var abonos []model.Abono
	err := r.db.WithContext(ctx).
		Where("deuda_id = ?", deudaID).
		Order("fecha ASC, created_at ASC").
		Find(&abonos).Error
	return abonos, err
}

// ListAbonosEntre returns payments in the inclusive date range, each with its
// debt, the debt's customer and the debt's full payment history.
func (r *deudaRepo) ListAbonosEntre(ctx context.Context, desde, hasta *datatypes.Date) ([]model.Abono, error) {
	q := r.db.WithContext(ctx).
		Preload("Deuda").
		Preload("Deuda.Cliente").
		Preload("Deuda.Abonos")
	if desde != nil {
		q = q.Where("fecha >= ?", *desde)
	}
	if hasta != nil {
		q = q.Where("fecha <= ?", *hasta)
	}
	var abonos []model.Abono
	err := q.Order("fecha ASC, created_at ASC").Find(&abonos).Error
	return abonos, err
}
