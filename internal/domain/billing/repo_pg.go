package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careportal/careportal/internal/domain/errs"
	"github.com/careportal/careportal/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type billRepoPG struct{ pool *pgxpool.Pool }

func NewBillRepoPG(pool *pgxpool.Pool) BillRepository { return &billRepoPG{pool: pool} }

func (r *billRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const billCols = `id, patient_id, appointment_id, order_id, bill_type, amount, status, description, paid_at, created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.PatientID, &b.AppointmentID, &b.OrderID, &b.Type,
		&b.Amount, &b.Status, &b.Description, &b.PaidAt, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bill: %w", errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *billRepoPG) Create(ctx context.Context, b *Bill) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusUnpaid
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill (id, patient_id, appointment_id, order_id, bill_type, amount, status, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		b.ID, b.PatientID, b.AppointmentID, b.OrderID, b.Type, b.Amount, b.Status, b.Description)
	return err
}

// CreateForAppointment inserts at most one bill per appointment. The
// unique index on appointment_id plus ON CONFLICT DO NOTHING makes the
// retry path a plain re-select of the winner's row.
func (r *billRepoPG) CreateForAppointment(ctx context.Context, b *Bill) (*Bill, error) {
	if b.AppointmentID == nil {
		return nil, fmt.Errorf("appointment_id is required: %w", errs.ErrInvalidInput)
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill (id, patient_id, appointment_id, bill_type, amount, status, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (appointment_id) DO NOTHING`,
		b.ID, b.PatientID, b.AppointmentID, TypeAppointment, b.Amount, StatusUnpaid, b.Description)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return r.GetByAppointmentID(ctx, *b.AppointmentID)
	}
	return r.GetByID(ctx, b.ID)
}

func (r *billRepoPG) CreateForOrder(ctx context.Context, b *Bill) (*Bill, error) {
	if b.OrderID == nil {
		return nil, fmt.Errorf("order_id is required: %w", errs.ErrInvalidInput)
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill (id, patient_id, order_id, bill_type, amount, status, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (order_id) DO NOTHING`,
		b.ID, b.PatientID, b.OrderID, TypeMedicine, b.Amount, StatusUnpaid, b.Description)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return r.GetByOrderID(ctx, *b.OrderID)
	}
	return r.GetByID(ctx, b.ID)
}

func (r *billRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE id = $1`, id))
}

func (r *billRepoPG) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE appointment_id = $1`, appointmentID))
}

func (r *billRepoPG) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Bill, error) {
	return scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE order_id = $1`, orderID))
}

// MarkPaid flips UNPAID to PAID. Zero rows affected means either the bill
// does not exist or it is already PAID; the follow-up select tells the two
// apart so callers can treat the second as a no-op.
func (r *billRepoPG) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET status = $2, paid_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		id, StatusPaid, paidAt, StatusUnpaid)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *billRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, billType string, limit, offset int) ([]*Bill, int, error) {
	where := `WHERE patient_id = $1`
	args := []interface{}{patientID}
	if billType != "" {
		where += ` AND bill_type = $2`
		args = append(args, billType)
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bill `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM bill %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		billCols, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}
