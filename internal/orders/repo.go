package orders

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/entrealas/orderdesk/internal/cart"
	"github.com/entrealas/orderdesk/pkg/db"
	"github.com/entrealas/orderdesk/pkg/db/models"
	"github.com/entrealas/orderdesk/pkg/enums"
	pkgerrors "github.com/entrealas/orderdesk/pkg/errors"
)

// StatusStat aggregates persisted orders for one status.
type StatusStat struct {
	Status  enums.OrderStatus `json:"status"`
	Orders  int64             `json:"orders"`
	Revenue decimal.Decimal   `json:"revenue"`
}

// Repository persists order snapshots keyed by order identity.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn, now: time.Now}
}

// ErrCodeTaken is wrapped by the conflict returned when a snapshot's code is
// already stored for a different order.
var ErrCodeTaken = stdErrors.New("order code belongs to another order")

// Save upserts the snapshot by order identity and replaces its lines. A code
// already held by another order is reported as a state conflict.
func (r *Repository) Save(ctx context.Context, snap Snapshot) error {
	if snap.Code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order code required")
	}
	id, err := uuid.Parse(snap.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order id required")
	}

	err = db.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var holder models.Order
		err := tx.Select("id").Where("code = ?", snap.Code).First(&holder).Error
		switch {
		case err == nil && holder.ID != id:
			return ErrCodeTaken
		case err != nil && !stdErrors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		var existing models.Order
		err = tx.Where("id = ?", id).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&existing).Updates(r.orderColumns(snap)).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id = ?", existing.ID).Delete(&models.OrderLine{}).Error; err != nil {
				return err
			}
			return createLines(tx, existing.ID, snap.Lines)
		case stdErrors.Is(err, gorm.ErrRecordNotFound):
			record := r.toModel(id, snap)
			if err := tx.Omit("Lines").Create(&record).Error; err != nil {
				return err
			}
			return createLines(tx, record.ID, snap.Lines)
		default:
			return err
		}
	})
	if err != nil {
		if stdErrors.Is(err, ErrCodeTaken) || db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order code already stored").
				WithDetails(map[string]any{"code": snap.Code})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving order")
	}
	return nil
}

// FindByCode loads a persisted order.
func (r *Repository) FindByCode(ctx context.Context, code string) (*Snapshot, error) {
	var record models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where("code = ?", code).
		First(&record).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	snap := fromModel(record)
	return &snap, nil
}

// Stats returns order counts and revenue grouped by status.
func (r *Repository) Stats(ctx context.Context) ([]StatusStat, error) {
	var rows []StatusStat
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order stats")
	}
	return rows, nil
}

func (r *Repository) orderColumns(snap Snapshot) map[string]any {
	cols := map[string]any{
		"code":         snap.Code,
		"status":       snap.Status,
		"client_name":  snap.Client.Name,
		"client_phone": snap.Client.Phone,
		"notes":        snap.Notes,
		"total":        snap.Total,
	}
	if snap.Status == enums.OrderStatusSent {
		cols["sent_at"] = r.now()
	}
	return cols
}

func (r *Repository) toModel(id uuid.UUID, snap Snapshot) models.Order {
	record := models.Order{
		ID:          id,
		Code:        snap.Code,
		Status:      snap.Status,
		ClientName:  snap.Client.Name,
		ClientPhone: snap.Client.Phone,
		Notes:       snap.Notes,
		Total:       snap.Total,
		PlacedAt:    r.now(),
	}
	if snap.CreatedAt != nil {
		record.PlacedAt = *snap.CreatedAt
	}
	if !record.Status.IsValid() {
		record.Status = enums.OrderStatusPending
	}
	if record.Status == enums.OrderStatusSent {
		sentAt := r.now()
		record.SentAt = &sentAt
	}
	return record
}

func createLines(tx *gorm.DB, orderID uuid.UUID, lines []cart.Line) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([]models.OrderLine, 0, len(lines))
	for i, line := range lines {
		rows = append(rows, models.OrderLine{
			ID:        uuid.New(),
			OrderID:   orderID,
			Position:  i,
			ItemID:    line.ID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Composite: line.Composite,
		})
	}
	return tx.Create(&rows).Error
}

func fromModel(record models.Order) Snapshot {
	placedAt := record.PlacedAt
	snap := Snapshot{
		ID:        record.ID.String(),
		Code:      record.Code,
		CreatedAt: &placedAt,
		Status:    record.Status,
		Client:    Client{Name: record.ClientName, Phone: record.ClientPhone},
		Notes:     record.Notes,
		Total:     record.Total,
		Lines:     make([]cart.Line, 0, len(record.Lines)),
	}
	for _, line := range record.Lines {
		snap.Lines = append(snap.Lines, cart.Line{
			ID:        line.ItemID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Composite: line.Composite,
		})
	}
	return snap
}
