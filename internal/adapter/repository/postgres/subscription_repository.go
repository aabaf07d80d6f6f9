package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/railzwaylabs/planchange/internal/domain/subscription"
)

// SubscriptionModel is the database DTO with Gorm tags.
type SubscriptionModel struct {
	ID               string     `gorm:"primaryKey;type:varchar(64)"`
	OrgID            int64      `gorm:"uniqueIndex"`
	PlanID           *string    `gorm:"type:varchar(64)"`
	CurrentPeriodEnd *time.Time `gorm:"type:timestamptz"`
	Status           string     `gorm:"type:varchar(16)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) FindByOrgID(ctx context.Context, orgID int64) (*subscription.Subscription, error) {
	var model SubscriptionModel
	if err := r.db.WithContext(ctx).Where("org_id = ?", orgID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, err
	}
	return subscriptionToDomain(model), nil
}

func subscriptionToDomain(m SubscriptionModel) *subscription.Subscription {
	var planID string
	if m.PlanID != nil {
		planID = *m.PlanID
	}

	var periodEnd *time.Time
	if m.CurrentPeriodEnd != nil {
		t := m.CurrentPeriodEnd.UTC()
		periodEnd = &t
	}

	return &subscription.Subscription{
		ID:               m.ID,
		OrgID:            m.OrgID,
		PlanID:           planID,
		CurrentPeriodEnd: periodEnd,
		Status:           subscription.Status(m.Status),
	}
}
