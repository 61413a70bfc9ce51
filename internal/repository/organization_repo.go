package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/skillopus-api/internal/models"
)

// OrganizationRepository defines persistence operations for tenants.
type OrganizationRepository interface {
	List(ctx context.Context) ([]models.Organization, error)
	GetByID(ctx context.Context, id uint) (models.Organization, error)
	GetByName(ctx context.Context, name string) (models.Organization, error)
	Create(ctx context.Context, org *models.Organization) error
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id uint) error
	CountMembers(ctx context.Context, id, excludeUserID uint) (users int64, courses int64, err error)
}

type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository instantiates a GORM-backed repository.
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id uint) (models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, id).Error; err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

func (r *organizationRepository) GetByName(ctx context.Context, name string) (models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&org).Error
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

func (r *organizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *organizationRepository) Update(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}

// Delete removes the organization together with any accounts still attached to it.
func (r *organizationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("organization_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", id).Delete(&models.User{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Organization{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *organizationRepository) CountMembers(ctx context.Context, id, excludeUserID uint) (int64, int64, error) {
	var users, courses int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("organization_id = ? AND id <> ?", id, excludeUserID).Count(&users).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Course{}).Where("organization_id = ?", id).Count(&courses).Error; err != nil {
		return 0, 0, err
	}
	return users, courses, nil
}
