package adapters

import (
	"context"
	"fmt"
	"time"

	"order-tracker/internal/features/orders/domain"

	"gorm.io/gorm"
)

// AuditLog is one row of the order audit trail.
type AuditLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	OrderID    string    `gorm:"type:varchar(64);not null;index"`
	Actor      string    `gorm:"type:varchar(128);not null;index"`
	Action     string    `gorm:"type:varchar(50);not null;index"`
	FromStatus string    `gorm:"type:varchar(32);not null"`
	ToStatus   string    `gorm:"type:varchar(32);not null"`
	Location   string    `gorm:"type:text"`
	Note       string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null;index"`
}

// TableName pins the table name independent of gorm's pluralisation rules.
func (AuditLog) TableName() string {
	return "order_audit_logs"
}

// GormAuditRecorder implements ports.AuditRecorder on PostgreSQL through gorm.
type GormAuditRecorder struct {
	db *gorm.DB
}

// NewGormAuditRecorder creates a new GormAuditRecorder.
func NewGormAuditRecorder(db *gorm.DB) *GormAuditRecorder {
	return &GormAuditRecorder{db: db}
}

// Migrate creates or updates the audit table.
func (r *GormAuditRecorder) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&AuditLog{}); err != nil {
		return fmt.Errorf("failed to migrate audit table: %w", err)
	}
	return nil
}

// Record inserts one audit row.
func (r *GormAuditRecorder) Record(ctx context.Context, entry domain.AuditEntry) error {
	row := AuditLog{
		OrderID:    entry.OrderID,
		Actor:      entry.Actor,
		Action:     string(entry.Action),
		FromStatus: string(entry.FromStatus),
		ToStatus:   string(entry.ToStatus),
		Location:   entry.Location,
		Note:       entry.Note,
		CreatedAt:  entry.At,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record audit entry for order %s: %w", entry.OrderID, err)
	}
	return nil
}

// List returns the audit rows of one order, newest first.
func (r *GormAuditRecorder) List(ctx context.Context, orderID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []AuditLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries for order %s: %w", orderID, err)
	}

	entries := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.AuditEntry{
			OrderID:    row.OrderID,
			Actor:      row.Actor,
			Action:     domain.AuditAction(row.Action),
			FromStatus: domain.Status(row.FromStatus),
			ToStatus:   domain.Status(row.ToStatus),
			Location:   row.Location,
			Note:       row.Note,
			At:         row.CreatedAt,
		})
	}
	return entries, nil
}
