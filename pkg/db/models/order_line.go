package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine captures one cart line of a persisted order.
type OrderLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	Position  int             `gorm:"column:position;not null"`
	ItemID    string          `gorm:"column:item_id;not null"`
	Name      string          `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Composite bool            `gorm:"column:composite;not null;default:false"`
}

func (OrderLine) TableName() string {
	return "order_lines"
}
