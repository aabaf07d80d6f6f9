package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/railzwaylabs/planchange/internal/domain/plan"
)

// PlanModel is the database DTO with Gorm tags.
type PlanModel struct {
	ID              string         `gorm:"primaryKey;type:varchar(64)"`
	Name            string         `gorm:"type:varchar(255)"`
	Price           int64          `gorm:"type:bigint"`
	BillingInterval string         `gorm:"type:varchar(16)"`
	Features        datatypes.JSON `gorm:"type:jsonb"`
	// NULL means no member cap.
	MaxMembers      *int    `gorm:"type:int"`
	ExternalPriceID *string `gorm:"type:varchar(255)"`
	Active          bool    `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (PlanModel) TableName() string {
	return "subscription_plans"
}

// PlanRepository serves the catalog from subscription_plans. Inactive rows
// are invisible.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetPlan(ctx context.Context, id string) (*plan.Plan, error) {
	var model PlanModel
	if err := r.db.WithContext(ctx).Where("id = ? AND active", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, plan.ErrPlanNotFound
		}
		return nil, err
	}
	return planToDomain(model)
}

func (r *PlanRepository) ListPlans(ctx context.Context) ([]plan.Plan, error) {
	var models []PlanModel
	if err := r.db.WithContext(ctx).Where("active").Order("price asc, id asc").Find(&models).Error; err != nil {
		return nil, err
	}

	plans := make([]plan.Plan, 0, len(models))
	for _, model := range models {
		p, err := planToDomain(model)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, nil
}

// Save upserts a plan.
func (r *PlanRepository) Save(ctx context.Context, p *plan.Plan) error {
	model, err := planToModel(p)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

// Mappers

func planToDomain(m PlanModel) (*plan.Plan, error) {
	features := map[string]plan.Feature{}
	if len(m.Features) > 0 {
		if err := json.Unmarshal(m.Features, &features); err != nil {
			return nil, fmt.Errorf("decode features of plan %s: %w", m.ID, err)
		}
	}

	maxMembers := plan.Unlimited
	if m.MaxMembers != nil {
		maxMembers = *m.MaxMembers
	}

	var priceID string
	if m.ExternalPriceID != nil {
		priceID = *m.ExternalPriceID
	}

	return &plan.Plan{
		ID:              m.ID,
		Name:            m.Name,
		Price:           m.Price,
		Interval:        plan.Interval(m.BillingInterval),
		Features:        features,
		MaxMembers:      maxMembers,
		ExternalPriceID: priceID,
	}, nil
}

func planToModel(p *plan.Plan) (PlanModel, error) {
	features, err := json.Marshal(p.Features)
	if err != nil {
		return PlanModel{}, err
	}

	model := PlanModel{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.Price,
		BillingInterval: string(p.Interval),
		Features:        datatypes.JSON(features),
		Active:          true,
	}
	if !p.IsUnlimited() {
		n := p.MaxMembers
		model.MaxMembers = &n
	}
	if p.ExternalPriceID != "" {
		id := p.ExternalPriceID
		model.ExternalPriceID = &id
	}
	return model, nil
}
