package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/entrealas/orderdesk/pkg/enums"
)

// Order is the persisted snapshot of a saved or sent order, keyed by its code.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Code        string            `gorm:"column:code;not null;uniqueIndex"`
	Status      enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	ClientName  string            `gorm:"column:client_name;not null;default:''"`
	ClientPhone string            `gorm:"column:client_phone;not null;default:''"`
	Notes       string            `gorm:"column:notes;not null;default:''"`
	Total       decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	PlacedAt    time.Time         `gorm:"column:placed_at;not null"`
	SentAt      *time.Time        `gorm:"column:sent_at"`
	Lines       []OrderLine       `gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
