package dao

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrCapacityExceeded    = errors.New("event capacity exceeded")
	ErrTicketsLocked       = errors.New("cannot reduce quantity below gifted or claimed tickets")
	ErrTxConflict          = errors.New("concurrent update conflict, retry")
)

type Reservation struct {
	ID uint `gorm:"primaryKey"`

	UserID  uint   `gorm:"not null;uniqueIndex:idx_reservations_user_event"`
	EventID string `gorm:"not null;uniqueIndex:idx_reservations_user_event;index"`

	Quantity         int `gorm:"not null"`
	TicketHolderName string

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type ReservationDAO struct {
	db *gorm.DB
}

func NewReservationDAO(db *gorm.DB) *ReservationDAO {
	return &ReservationDAO{
		db: db,
	}
}

// Upsert creates or overwrites the (user, event) reservation and brings its
// ticket rows into agreement with the new quantity, all inside one
// serializable transaction. The capacity total is recomputed under row locks
// so concurrent reservers for the same event cannot jointly overshoot the
// ceiling. A nil capacity admits any quantity.
func (d *ReservationDAO) Upsert(ctx context.Context, res Reservation, capacity *int) (Reservation, error) {
	var out Reservation

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []Reservation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("event_id = ?", res.EventID).
			Order("id ASC").
			Find(&existing).Error; err != nil {
			return err
		}

		total := 0
		var current *Reservation
		for i := range existing {
			total += existing[i].Quantity
			if existing[i].UserID == res.UserID {
				current = &existing[i]
			}
		}

		if capacity != nil {
			projected := total + res.Quantity
			if current != nil {
				projected -= current.Quantity
			}
			if projected > *capacity {
				return ErrCapacityExceeded
			}
		}

		if current != nil {
			if err := tx.Model(&Reservation{}).
				Where("id = ?", current.ID).
				Updates(map[string]interface{}{
					"quantity":           res.Quantity,
					"ticket_holder_name": res.TicketHolderName,
				}).Error; err != nil {
				return err
			}
			out = *current
			out.Quantity = res.Quantity
			out.TicketHolderName = res.TicketHolderName
		} else {
			if err := tx.Create(&res).Error; err != nil {
				return err
			}
			out = res
		}

		return reconcileTickets(tx, out.ID, out.EventID, out.Quantity, out.UserID)
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return Reservation{}, mapTxError(err)
	}

	return out, nil
}

// Delete cancels the (user, event) reservation. The ticket set is reconciled
// to zero first, so a reservation that still has gifted or claimed tickets
// cannot be cancelled.
func (d *ReservationDAO) Delete(ctx context.Context, userID uint, eventID string) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res Reservation
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND event_id = ?", userID, eventID).
			First(&res)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}

			return result.Error
		}

		if err := reconcileTickets(tx, res.ID, res.EventID, 0, userID); err != nil {
			return err
		}

		return tx.Delete(&Reservation{}, res.ID).Error
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return mapTxError(err)
	}

	return nil
}

func (d *ReservationDAO) FindByUserAndEvent(ctx context.Context, userID uint, eventID string) (Reservation, error) {
	var res Reservation

	result := d.db.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&res)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Reservation{}, ErrReservationNotFound
		}

		return Reservation{}, result.Error
	}

	return res, nil
}

func (d *ReservationDAO) SumQuantityForEvent(ctx context.Context, eventID string) (int, error) {
	var total sql.NullInt64

	result := d.db.WithContext(ctx).Model(&Reservation{}).
		Where("event_id = ?", eventID).
		Select("SUM(quantity)").
		Scan(&total)
	if result.Error != nil {
		return 0, result.Error
	}

	return int(total.Int64), nil
}

// mapTxError turns serialization failures into the retryable sentinel so
// callers can distinguish contention from real failures.
func mapTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		(pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected) {
		return ErrTxConflict
	}

	return err
}
