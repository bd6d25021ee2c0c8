package repository

import (
	"context"

	"refrigas/internal/model"

	"gorm.io/gorm"
)

type NotificacionRepository interface {
	Create(ctx context.Context, n *model.Notificacion) error
	// UpdateEstado persists the terminal state of a pending notification.
	UpdateEstado(ctx context.Context, n *model.Notificacion) error
	ListRecientes(ctx context.Context, limit int) ([]model.Notificacion, error)
	ContarPorEstado(ctx context.Context) (map[string]int64, error)
}

type notificacionRepo struct{ db *gorm.DB }

func NewNotificacionRepository(db *gorm.DB) NotificacionRepository {
	return &notificacionRepo{db: db}
}

func (r *notificacionRepo) Create(ctx context.Context, n *model.Notificacion) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificacionRepo) UpdateEstado(ctx context.Context, n *model.Notificacion) error {
	return r.db.WithContext(ctx).Model(n).
		Where("estado = ?", model.EstadoPendiente).
		Updates(map[string]any{
			"estado":        n.Estado,
			"fecha_envio":   n.FechaEnvio,
			"error_mensaje": n.ErrorMensaje,
		}).Error
}

func (r *notificacionRepo) ListRecientes(ctx context.Context, limit int) ([]model.Notificacion, error) {
	var ns []model.Notificacion
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&ns).Error
	return ns, err
}

func (r *notificacionRepo) ContarPorEstado(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Estado string
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Select("estado, COUNT(*) AS total").
		Group("estado").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Estado] = row.Total
	}
	return out, nil
}
