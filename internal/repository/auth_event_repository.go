package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// AuthEvent is an append-only audit row for a signup or signin verification
// attempt.
type AuthEvent struct {
	ID        uint      `gorm:"primaryKey"`
	RequestID string    `gorm:"column:request_id;uniqueIndex;size:64"`
	Username  string    `gorm:"column:username;size:50;index"`
	Kind      string    `gorm:"column:kind;size:16"`
	Distance  float64   `gorm:"column:distance"`
	Verified  bool      `gorm:"column:verified"`
	Details   string    `gorm:"column:details;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// Event kinds.
const (
	EventSignup = "signup"
	EventSignin = "signin"
)

// TableName overrides the default table name.
func (AuthEvent) TableName() string {
	return "auth_events"
}

// MetricsAggregation holds raw aggregates over signin events.
type MetricsAggregation struct {
	TotalCount      int64
	VerifiedCount   int64
	AverageDistance float64
}

// AuthEventRepository persists and aggregates auth events.
type AuthEventRepository struct {
	db *gorm.DB
}

// NewAuthEventRepository creates a new repository instance.
func NewAuthEventRepository(db *gorm.DB) *AuthEventRepository {
	return &AuthEventRepository{db: db}
}

// Save appends an event.
func (r *AuthEventRepository) Save(ctx context.Context, event *AuthEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// AggregateMetrics computes totals over signin verification attempts.
func (r *AuthEventRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var agg MetricsAggregation
	err := r.db.WithContext(ctx).
		Model(&AuthEvent{}).
		Where("kind = ?", EventSignin).
		Select("COUNT(*) AS total_count, " +
			"COALESCE(SUM(CASE WHEN verified THEN 1 ELSE 0 END), 0) AS verified_count, " +
			"COALESCE(AVG(distance), 0) AS average_distance").
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
