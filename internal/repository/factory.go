package repository

import (
	"context"
	"errors"

	"factoryfeed/internal/models"

	"gorm.io/gorm"
)

// FactoryRepository persists factories and their append-only event log.
type FactoryRepository interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, factory *models.Factory, announcement *models.FactoryPost) error
	SaveReading(ctx context.Context, factory *models.Factory, post *models.FactoryPost) error
	GetByID(ctx context.Context, id string) (*models.Factory, error)
	List(ctx context.Context) ([]models.Factory, error)
	Feed(ctx context.Context, limit int) ([]models.FactoryPost, error)
	Latest(ctx context.Context) (*models.FactoryPost, error)
}

type factoryRepository struct {
	db *gorm.DB
}

// NewFactoryRepository returns a gorm-backed FactoryRepository.
func NewFactoryRepository(db *gorm.DB) FactoryRepository {
	return &factoryRepository{db: db}
}

func (r *factoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Factory{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// Create inserts the factory and its announcement together.
func (r *factoryRepository) Create(ctx context.Context, factory *models.Factory, announcement *models.FactoryPost) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(factory).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Factory " + factory.ID + " already exists")
			}
			return err
		}
		if announcement != nil {
			return tx.Create(announcement).Error
		}
		return nil
	})
	return asAppError(err)
}

// SaveReading writes the latest reading and appends its event in one transaction.
func (r *factoryRepository) SaveReading(ctx context.Context, factory *models.Factory, post *models.FactoryPost) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Factory{}).Where("id = ?", factory.ID).Updates(map[string]any{
			"last_temp":          factory.Temp,
			"last_pressure":      factory.Pressure,
			"last_rpm":           factory.RPM,
			"last_product_count": factory.ProductCount,
			"last_status":        factory.Status,
			"last_update":        factory.LastUpdate,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Factory", factory.ID)
		}
		if post != nil {
			return tx.Create(post).Error
		}
		return nil
	})
	return asAppError(err)
}

func (r *factoryRepository) GetByID(ctx context.Context, id string) (*models.Factory, error) {
	var f models.Factory
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Factory", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &f, nil
}

func (r *factoryRepository) List(ctx context.Context) ([]models.Factory, error) {
	var factories []models.Factory
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&factories).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return factories, nil
}

// Feed returns the newest factory events first.
func (r *factoryRepository) Feed(ctx context.Context, limit int) ([]models.FactoryPost, error) {
	var posts []models.FactoryPost
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(clampLimit(limit, 20, 200)).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Latest returns nil, nil when the log is empty.
func (r *factoryRepository) Latest(ctx context.Context) (*models.FactoryPost, error) {
	posts, err := r.Feed(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}
