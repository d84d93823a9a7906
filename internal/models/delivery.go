package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submission kinds
const (
	KindContact = "contact"
	KindMeeting = "meeting"
)

// Delivery statuses
const (
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusFailed    = "failed"
)

// Delivery stages
const (
	StageOperator       = "operator"
	StageAcknowledgment = "acknowledgment"
)

// DeliveryRecord is an audit row for one accepted dispatch. It never holds
// submission content.
type DeliveryRecord struct {
	ID             string    `gorm:"type:text;primaryKey" json:"id"`
	Kind           string    `gorm:"not null;index" json:"kind"`
	IdempotencyKey *string   `gorm:"index" json:"idempotency_key,omitempty"`
	Provider       string    `gorm:"not null" json:"provider"`
	Status         string    `gorm:"not null;index" json:"status"`
	FailedStage    string    `json:"failed_stage,omitempty"`
	ErrorType      string    `json:"error_type,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (r *DeliveryRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
