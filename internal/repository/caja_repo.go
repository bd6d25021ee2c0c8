package repository

import (
	"context"

	"refrigas/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CajaRepository interface {
	DB() *gorm.DB
	CreateTransaccionTx(tx *gorm.DB, t *model.Transaccion) error
	ListTransacciones(ctx context.Context, fecha datatypes.Date) ([]model.Transaccion, error)
	ListTransaccionesTx(tx *gorm.DB, fecha datatypes.Date) ([]model.Transaccion, error)

	CreateCierre(ctx context.Context, c *model.CierreCaja) error
	FindCierreByID(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error)
	FindCierreByFecha(ctx context.Context, fecha datatypes.Date) (*model.CierreCaja, error)
	FindCierreByFechaForShareTx(tx *gorm.DB, fecha datatypes.Date) (*model.CierreCaja, error)
	FindCierreForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.CierreCaja, error)
	UpdateCierreTx(tx *gorm.DB, c *model.CierreCaja) error
	ListCierres(ctx context.Context, page, limit int) ([]model.CierreCaja, int64, error)
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) CreateTransaccionTx(tx *gorm.DB, t *model.Transaccion) error {
	return tx.Create(t).Error
}

func (r *cajaRepo) ListTransacciones(ctx context.Context, fecha datatypes.Date) ([]model.Transaccion, error) {
	return r.ListTransaccionesTx(r.db.WithContext(ctx), fecha)
}

func (r *cajaRepo) ListTransaccionesTx(tx *gorm.DB, fecha datatypes.Date) ([]model.Transaccion, error) {
	var ts []model.Transaccion
	err := tx.Where("fecha = ?", fecha).Order("created_at ASC").Find(&ts).Error
	return ts, err
}

func (r *cajaRepo) CreateCierre(ctx context.Context, c *model.CierreCaja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) FindCierreByID(ctx context.Context, id uuid.UUID) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaRepo) FindCierreByFecha(ctx context.Context, fecha datatypes.Date) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).Where("fecha = ?", fecha).First(&c).Error
	return &c, err
}

// FindCierreByFechaForShareTx takes a shared lock: concurrent inserts for the
// day proceed together but wait for, and then see, a finalizing Cerrar.
func (r *cajaRepo) FindCierreByFechaForShareTx(tx *gorm.DB, fecha datatypes.Date) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Where("fecha = ?", fecha).First(&c).Error
	return &c, err
}

func (r *cajaRepo) FindCierreForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaRepo) UpdateCierreTx(tx *gorm.DB, c *model.CierreCaja) error {
	return tx.Save(c).Error
}

func (r *cajaRepo) ListCierres(ctx context.Context, page, limit int) ([]model.CierreCaja, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.CierreCaja{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var cierres []model.CierreCaja
	err := r.db.WithContext(ctx).
		Order("fecha DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&cierres).Error
	return cierres, total, err
}
