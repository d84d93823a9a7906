package dispatch

import (
	"context"

	"github.com/akeren/digitalcraft-dispatch/internal/models"
	apperrors "github.com/akeren/digitalcraft-dispatch/pkg/errors"
	"gorm.io/gorm"
)

//go:generate mockgen -destination=mock_test.go -package=dispatch . DeliveryRepository
//go:generate mockgen -destination=mock_mailer_test.go -package=dispatch -mock_names=Mailer=MockMailer github.com/akeren/digitalcraft-dispatch/pkg/mailer Mailer

type DeliveryRepository interface {
	// RecordDelivery persists the audit row for one dispatch.
	RecordDelivery(ctx context.Context, record *models.DeliveryRecord) error
}

type deliveryRepository struct {
	db *gorm.DB
}

// NewDeliveryRepository returns a repository that discards records when db is nil.
func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	if db == nil {
		return discardRepository{}
	}
	return &deliveryRepository{db: db}
}

func (dr *deliveryRepository) RecordDelivery(ctx context.Context, record *models.DeliveryRecord) error {
	if err := dr.db.WithContext(ctx).Create(record).Error; err != nil {
		return apperrors.NewDatabaseError("unable to record delivery", err)
	}
	return nil
}

type discardRepository struct{}

func (discardRepository) RecordDelivery(context.Context, *models.DeliveryRecord) error {
	return nil
}
