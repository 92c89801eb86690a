package postgres

import (
	"context"

	"github.com/espejelomar/starknet-advisor-bot/internal/models"
	"gorm.io/gorm"
)

type AnalyticsRepo interface {
	Insert(ctx context.Context, ev *models.AnalyticsEvent) error
}

type analyticsRepo struct {
	db *gorm.DB
}

func NewAnalyticsRepo(db *gorm.DB) AnalyticsRepo {
	return &analyticsRepo{db: db}
}

func (r *analyticsRepo) Insert(ctx context.Context, ev *models.AnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}
