package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/agrifield/be-fs-liquidations/internal/flow"
	"github.com/agrifield/be-fs-liquidations/pkg/database"
	"github.com/agrifield/be-fs-liquidations/pkg/errors"
)

// RecordRepository handles liquidation record persistence. All
// approval writes go through ApplyApproval, a single conditional
// UPDATE keyed on the expected prior status — the store's
// compare-and-set primitive.
type RecordRepository struct {
	db   *database.DB
	flow *flow.Config
}

// NewRecordRepository creates a new record repository bound to the
// injected flow configuration (used to default absent statuses and to
// guard terminal records at the statement level).
func NewRecordRepository(db *database.DB, flowCfg *flow.Config) *RecordRepository {
	return &RecordRepository{db: db, flow: flowCfg}
}

const recordColumns = `
	phone_number, to_char(record_date, 'YYYY-MM-DD'),
	employee_name, hq, zone, area,
	products, status, approvals,
	edited_by, edited_at, created_at`

// Get retrieves a record by its (phone_number, record_date) key.
func (r *RecordRepository) Get(ctx context.Context, key RecordKey) (*Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM liquidation_records
		WHERE phone_number = $1 AND record_date = $2
	`

	rec, err := r.scanRecord(r.db.QueryRow(ctx, query, key.PhoneNumber, key.RecordDate))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("record", key.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get record")
	}
	return rec, nil
}

// List retrieves records with filtering and pagination, newest first.
func (r *RecordRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Record, int64, error) {
	// A non-nil empty key set means the viewer supervises nobody.
	if filter.PhoneNumbers != nil && len(filter.PhoneNumbers) == 0 {
		return []*Record{}, 0, nil
	}

	query := `SELECT ` + recordColumns + ` FROM liquidation_records WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM liquidation_records WHERE 1=1`

	args := []any{}
	argCount := 1

	addCond := func(cond string, value any) {
		clause := fmt.Sprintf(cond, argCount)
		query += clause
		countQuery += clause
		args = append(args, value)
		argCount++
	}

	if filter.Status != nil {
		// COALESCE so records stored with a NULL status match the
		// initial stage filter.
		clause := fmt.Sprintf(" AND COALESCE(status, $%d) = $%d", argCount+1, argCount)
		query += clause
		countQuery += clause
		args = append(args, string(*filter.Status), string(r.flow.Initial()))
		argCount += 2
	}
	if filter.Zone != nil {
		addCond(" AND zone = $%d", *filter.Zone)
	}
	if filter.FromDate != nil {
		addCond(" AND record_date >= $%d", *filter.FromDate)
	}
	if filter.ToDate != nil {
		addCond(" AND record_date <= $%d", *filter.ToDate)
	}
	if filter.PhoneNumbers != nil {
		addCond(" AND phone_number = ANY($%d)", filter.PhoneNumbers)
	}

	query += " ORDER BY record_date DESC, created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1)
	queryArgs := append(args, limit, offset)

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count records")
	}

	rows, err := r.db.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to list records")
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan record")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to read records")
	}

	return records, total, nil
}

// ApplyApproval advances a record's status and appends the approval in
// one conditional UPDATE. The write only lands when the stored status
// still equals expectedStatus; a concurrent winner makes it a no-op
// and the caller gets ErrCodeConflict.
func (r *RecordRepository) ApplyApproval(
	ctx context.Context,
	key RecordKey,
	expectedStatus, newStatus flow.Status,
	approval Approval,
) (*Record, error) {
	entry, err := json.Marshal([]Approval{approval})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to encode approval")
	}

	query := `
		UPDATE liquidation_records
		SET status    = $1,
		    approvals = COALESCE(approvals, '[]'::jsonb) || $2::jsonb,
		    edited_by = $3,
		    edited_at = NOW()
		WHERE phone_number = $4
		  AND record_date  = $5
		  AND COALESCE(status, $6) = $7
		RETURNING ` + recordColumns

	rec, err := r.scanRecord(r.db.QueryRow(ctx, query,
		string(newStatus),
		entry,
		approval.Tag(),
		key.PhoneNumber,
		key.RecordDate,
		string(r.flow.Initial()),
		string(expectedStatus),
	))
	if err == pgx.ErrNoRows {
		// Either the record is gone or another writer won the race.
		if _, getErr := r.Get(ctx, key); getErr != nil {
			return nil, getErr
		}
		return nil, errors.Newf(errors.ErrCodeConflict,
			"record %s changed concurrently (expected status %s)", key, expectedStatus)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to apply approval")
	}
	return rec, nil
}

// UpdateFields overwrites the patch's whitelisted fields and stamps
// edited_by/edited_at. The statement itself refuses terminal records,
// so an edit racing a finalizing approval cannot land.
func (r *RecordRepository) UpdateFields(
	ctx context.Context,
	key RecordKey,
	patch FieldPatch,
	editorTag string,
) (*Record, error) {
	if patch.IsEmpty() {
		return nil, errors.New(errors.ErrCodeEmptyPatch, "nothing to update")
	}

	sets := ""
	args := []any{}
	argCount := 1

	addSet := func(column string, value any) {
		if sets != "" {
			sets += ", "
		}
		sets += fmt.Sprintf("%s = $%d", column, argCount)
		args = append(args, value)
		argCount++
	}

	if patch.EmployeeName != nil {
		addSet("employee_name", *patch.EmployeeName)
	}
	if patch.HQ != nil {
		addSet("hq", *patch.HQ)
	}
	if patch.Zone != nil {
		addSet("zone", *patch.Zone)
	}
	if patch.Area != nil {
		addSet("area", *patch.Area)
	}
	if patch.Products != nil {
		products, err := json.Marshal(*patch.Products)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to encode products")
		}
		addSet("products", products)
	}

	query := fmt.Sprintf(`
		UPDATE liquidation_records
		SET %s, edited_by = $%d, edited_at = NOW()
		WHERE phone_number = $%d
		  AND record_date  = $%d
		  AND COALESCE(status, $%d) <> $%d
		RETURNING `+recordColumns,
		sets, argCount, argCount+1, argCount+2, argCount+3, argCount+4)

	args = append(args,
		editorTag,
		key.PhoneNumber,
		key.RecordDate,
		string(r.flow.Initial()),
		string(r.flow.Terminal()),
	)

	rec, err := r.scanRecord(r.db.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		if _, getErr := r.Get(ctx, key); getErr != nil {
			return nil, getErr
		}
		return nil, errors.New(errors.ErrCodeAlreadyFinalized, "cannot edit a fully approved record")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to update record")
	}
	return rec, nil
}

// ── scan helper ──────────────────────────────────────────────────────────────

type recordScanner interface {
	Scan(dest ...any) error
}

func (r *RecordRepository) scanRecord(row recordScanner) (*Record, error) {
	rec := &Record{}
	var (
		products  []byte
		approvals []byte
		status    *string
	)

	err := row.Scan(
		&rec.PhoneNumber,
		&rec.RecordDate,
		&rec.EmployeeName,
		&rec.HQ,
		&rec.Zone,
		&rec.Area,
		&products,
		&status,
		&approvals,
		&rec.EditedBy,
		&rec.EditedAt,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Absent status means the record never left the initial stage.
	if status == nil || *status == "" {
		rec.Status = r.flow.Initial()
	} else {
		rec.Status = flow.Status(*status)
	}

	rec.Products = []ProductLine{}
	if len(products) > 0 {
		if err := json.Unmarshal(products, &rec.Products); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
	}

	rec.Approvals = []Approval{}
	if len(approvals) > 0 {
		if err := json.Unmarshal(approvals, &rec.Approvals); err != nil {
			return nil, fmt.Errorf("decode approvals: %w", err)
		}
	}

	return rec, nil
}
