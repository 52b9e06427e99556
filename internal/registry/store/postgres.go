package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"tasjeel/internal/authz"
	"tasjeel/internal/registry/guard"
	"tasjeel/internal/registry/models"
	"tasjeel/pkg/platform/sentinel"
)

const (
	pgErrUniqueViolation   = "23505"
	pgErrSerializationFail = "40001"
	pgErrDeadlockDetected  = "40P01"
)

// Postgres persists the registry in PostgreSQL through database/sql.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// mapPgError translates driver facts into sentinels services understand.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pgErr.ConstraintName)
		case pgErrSerializationFail, pgErrDeadlockDetected:
			return fmt.Errorf("%w: %s", sentinel.ErrSerialization, pgErr.Code)
		}
	}
	return err
}

func scopeClause(scope authz.Scope, column string, argPos int) (string, []any) {
	if scope.ViewAll {
		return "", nil
	}
	return fmt.Sprintf(" AND %s = $%d", column, argPos), []any{scope.CreatedBy}
}

// -----------------------------------------------------------------------------
// Lookup types
// -----------------------------------------------------------------------------

func (s *Postgres) TransactionType(ctx context.Context, id int64) (models.TransactionType, error) {
	var tt models.TransactionType
	err := s.db.QueryRowContext(ctx, `
		SELECT id, domain, name FROM transaction_types WHERE id = $1
	`, id).Scan(&tt.ID, &tt.Domain, &tt.Name)
	if err != nil {
		return models.TransactionType{}, mapPgError(err)
	}
	return tt, nil
}

func (s *Postgres) TransactionTypes(ctx context.Context, domain models.Domain) ([]models.TransactionType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, domain, name FROM transaction_types WHERE domain = $1 ORDER BY id
	`, domain)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()
	var out []models.TransactionType
	for rows.Next() {
		var tt models.TransactionType
		if err := rows.Scan(&tt.ID, &tt.Domain, &tt.Name); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Properties
// -----------------------------------------------------------------------------

func (s *Postgres) CreateProperty(ctx context.Context, p *models.Property, parties []models.Party) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create property: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO properties (id, document_no, district, plot_no, area_sqm, price_afs, transaction_type_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.DocumentNo, p.District, p.PlotNo, p.AreaSqm, p.PriceAfs, p.TransactionTypeID, p.CreatedBy, p.CreatedAt); err != nil {
		return mapPgError(err)
	}
	if err := insertParties(ctx, tx, parties); err != nil {
		return mapPgError(err)
	}
	if err := tx.Commit(); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (s *Postgres) GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	err := s.db.QueryRowContext(ctx, `
		SELECT id, document_no, district, plot_no, area_sqm, price_afs, transaction_type_id, created_by, created_at
		FROM properties WHERE id = $1
	`, id).Scan(&p.ID, &p.DocumentNo, &p.District, &p.PlotNo, &p.AreaSqm, &p.PriceAfs, &p.TransactionTypeID, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

func (s *Postgres) ListProperties(ctx context.Context, scope authz.Scope) ([]*models.Property, error) {
	query := `
		SELECT id, document_no, district, plot_no, area_sqm, price_afs, transaction_type_id, created_by, created_at
		FROM properties WHERE 1=1`
	clause, args := scopeClause(scope, "created_by", 1)
	rows, err := s.db.QueryContext(ctx, query+clause+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()
	var out []*models.Property
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(&p.ID, &p.DocumentNo, &p.District, &p.PlotNo, &p.AreaSqm, &p.PriceAfs, &p.TransactionTypeID, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateProperty(ctx context.Context, p *models.Property) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE properties
		SET document_no = $2, district = $3, plot_no = $4, area_sqm = $5, price_afs = $6, transaction_type_id = $7
		WHERE id = $1
	`, p.ID, p.DocumentNo, p.District, p.PlotNo, p.AreaSqm, p.PriceAfs, p.TransactionTypeID)
	if err != nil {
		return mapPgError(err)
	}
	return requireRow(res)
}

func (s *Postgres) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	return requireRow(res)
}

// -----------------------------------------------------------------------------
// Vehicles
// -----------------------------------------------------------------------------

func (s *Postgres) CreateVehicle(ctx context.Context, v *models.Vehicle, parties []models.Party) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create vehicle: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO vehicles (id, plate_no, chassis_no, engine_no, model, price_afs, transaction_type_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, v.ID, v.PlateNo, v.ChassisNo, v.EngineNo, v.Model, v.PriceAfs, v.TransactionTypeID, v.CreatedBy, v.CreatedAt); err != nil {
		return mapPgError(err)
	}
	if err := insertParties(ctx, tx, parties); err != nil {
		return mapPgError(err)
	}
	if err := tx.Commit(); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (s *Postgres) GetVehicle(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var v models.Vehicle
	err := s.db.QueryRowContext(ctx, `
		SELECT id, plate_no, chassis_no, engine_no, model, price_afs, transaction_type_id, created_by, created_at
		FROM vehicles WHERE id = $1
	`, id).Scan(&v.ID, &v.PlateNo, &v.ChassisNo, &v.EngineNo, &v.Model, &v.PriceAfs, &v.TransactionTypeID, &v.CreatedBy, &v.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &v, nil
}

func (s *Postgres) ListVehicles(ctx context.Context, scope authz.Scope) ([]*models.Vehicle, error) {
	query := `
		SELECT id, plate_no, chassis_no, engine_no, model, price_afs, transaction_type_id, created_by, created_at
		FROM vehicles WHERE 1=1`
	clause, args := scopeClause(scope, "created_by", 1)
	rows, err := s.db.QueryContext(ctx, query+clause+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()
	var out []*models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.PlateNo, &v.ChassisNo, &v.EngineNo, &v.Model, &v.PriceAfs, &v.TransactionTypeID, &v.CreatedBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateVehicle(ctx context.Context, v *models.Vehicle) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vehicles
		SET plate_no = $2, chassis_no = $3, engine_no = $4, model = $5, price_afs = $6, transaction_type_id = $7
		WHERE id = $1
	`, v.ID, v.PlateNo, v.ChassisNo, v.EngineNo, v.Model, v.PriceAfs, v.TransactionTypeID)
	if err != nil {
		return mapPgError(err)
	}
	return requireRow(res)
}

func (s *Postgres) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	return requireRow(res)
}

// -----------------------------------------------------------------------------
// Companies
// -----------------------------------------------------------------------------

func (s *Postgres) CreateCompany(ctx context.Context, c *models.Company) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, license_no, license_type, address, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.LicenseNo, c.LicenseType, c.Address, c.CreatedBy, c.CreatedAt)
	return mapPgError(err)
}

func (s *Postgres) GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var c models.Company
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, license_no, license_type, address, created_by, created_at
		FROM companies WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.LicenseNo, &c.LicenseType, &c.Address, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &c, nil
}

func (s *Postgres) ListCompanies(ctx context.Context, scope authz.Scope) ([]*models.Company, error) {
	query := `
		SELECT id, name, license_no, license_type, address, created_by, created_at
		FROM companies WHERE 1=1`
	clause, args := scopeClause(scope, "created_by", 1)
	rows, err := s.db.QueryContext(ctx, query+clause+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()
	var out []*models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.LicenseNo, &c.LicenseType, &c.Address, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Postgres) UpdateCompany(ctx context.Context, c *models.Company) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE companies
		SET name = $2, license_no = $3, license_type = $4, address = $5
		WHERE id = $1
	`, c.ID, c.Name, c.LicenseNo, c.LicenseType, c.Address)
	if err != nil {
		return mapPgError(err)
	}
	return requireRow(res)
}

func (s *Postgres) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	return requireRow(res)
}

// -----------------------------------------------------------------------------
// Parties
// -----------------------------------------------------------------------------

func insertParties(ctx context.Context, tx *sql.Tx, parties []models.Party) error {
	for _, p := range parties {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO parties (id, domain, side, parent_id, first_name, father_name, grand_father, phone, address, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, p.ID, p.Domain, p.Side, p.ParentID, p.FirstName, p.FatherName, p.GrandFather, p.Phone, p.Address, p.CreatedBy, p.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Postgres) PartiesByParent(ctx context.Context, domain models.Domain, parentID uuid.UUID) ([]models.Party, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, domain, side, parent_id, first_name, father_name, grand_father, phone, address, created_by, created_at
		FROM parties WHERE domain = $1 AND parent_id = $2
		ORDER BY side, created_at
	`, domain, parentID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()
	var out []models.Party
	for rows.Next() {
		var p models.Party
		if err := rows.Scan(&p.ID, &p.Domain, &p.Side, &p.ParentID, &p.FirstName, &p.FatherName, &p.GrandFather, &p.Phone, &p.Address, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) GetParty(ctx context.Context, id uuid.UUID) (*models.Party, error) {
	var p models.Party
	err := s.db.QueryRowContext(ctx, `
		SELECT id, domain, side, parent_id, first_name, father_name, grand_father, phone, address, created_by, created_at
		FROM parties WHERE id = $1
	`, id).Scan(&p.ID, &p.Domain, &p.Side, &p.ParentID, &p.FirstName, &p.FatherName, &p.GrandFather, &p.Phone, &p.Address, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

func (s *Postgres) UpdateParty(ctx context.Context, p *models.Party) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE parties
		SET first_name = $2, father_name = $3, grand_father = $4, phone = $5, address = $6
		WHERE id = $1
	`, p.ID, p.FirstName, p.FatherName, p.GrandFather, p.Phone, p.Address)
	if err != nil {
		return mapPgError(err)
	}
	return requireRow(res)
}

// -----------------------------------------------------------------------------
// Cancellations
// -----------------------------------------------------------------------------

func (s *Postgres) CreateCancellation(ctx context.Context, c *models.Cancellation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cancellations (id, domain, parent_id, reason, cancelled_by, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.Domain, c.ParentID, c.Reason, c.CancelledBy, c.CancelledAt)
	return mapPgError(err)
}

func (s *Postgres) CancellationByParent(ctx context.Context, domain models.Domain, parentID uuid.UUID) (*models.Cancellation, error) {
	var c models.Cancellation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, domain, parent_id, reason, cancelled_by, cancelled_at
		FROM cancellations WHERE domain = $1 AND parent_id = $2
	`, domain, parentID).Scan(&c.ID, &c.Domain, &c.ParentID, &c.Reason, &c.CancelledBy, &c.CancelledAt)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &c, nil
}

// -----------------------------------------------------------------------------
// Conflict scan (guard.ConflictStore)
// -----------------------------------------------------------------------------

// FindActiveConflicts joins the side table against the parent records and the
// cancellation sidecar. Identity matching trims in SQL so it agrees with
// guard.Identity.Normalize. No ownership scope is applied: the invariant is
// system-wide.
func (s *Postgres) FindActiveConflicts(ctx context.Context, domain models.Domain, side models.Side, identity guard.Identity, restrictedTypeIDs []int64, excludePartyID uuid.UUID) ([]guard.Conflict, error) {
	parentTable := "properties"
	if domain == models.DomainVehicle {
		parentTable = "vehicles"
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.parent_id, parent.transaction_type_id, tt.name
		FROM parties p
		JOIN %s parent ON parent.id = p.parent_id
		JOIN transaction_types tt ON tt.id = parent.transaction_type_id
		LEFT JOIN cancellations c ON c.domain = p.domain AND c.parent_id = p.parent_id
		WHERE p.domain = $1
		  AND p.side = $2
		  AND btrim(p.first_name) = $3
		  AND btrim(p.father_name) = $4
		  AND btrim(p.grand_father) = $5
		  AND parent.transaction_type_id = ANY($6::bigint[])
		  AND c.id IS NULL
		  AND p.id <> $7
	`, parentTable)

	rows, err := s.db.QueryContext(ctx, query,
		domain, side,
		identity.FirstName, identity.FatherName, identity.GrandFather,
		pq.Array(restrictedTypeIDs), excludePartyID,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []guard.Conflict
	for rows.Next() {
		var c guard.Conflict
		if err := rows.Scan(&c.PartyID, &c.ParentID, &c.TransactionTypeID, &c.TransactionTypeName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Aggregates
// -----------------------------------------------------------------------------

func (s *Postgres) Summary(ctx context.Context, scope authz.Scope) (models.Summary, error) {
	var sum models.Summary
	count := func(table, column string) (int, error) {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1", table)
		clause, args := scopeClause(scope, column, 1)
		var n int
		err := s.db.QueryRowContext(ctx, query+clause, args...).Scan(&n)
		return n, err
	}
	var err error
	if sum.Properties, err = count("properties", "created_by"); err != nil {
		return models.Summary{}, mapPgError(err)
	}
	if sum.Vehicles, err = count("vehicles", "created_by"); err != nil {
		return models.Summary{}, mapPgError(err)
	}
	if sum.Companies, err = count("companies", "created_by"); err != nil {
		return models.Summary{}, mapPgError(err)
	}
	if sum.Cancellations, err = count("cancellations", "cancelled_by"); err != nil {
		return models.Summary{}, mapPgError(err)
	}
	return sum, nil
}

func (s *Postgres) ListActors(ctx context.Context) ([]models.ActorActivity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT created_by, COUNT(*), MAX(created_at)
		FROM (
			SELECT created_by, created_at FROM properties
			UNION ALL SELECT created_by, created_at FROM vehicles
			UNION ALL SELECT created_by, created_at FROM companies
		) all_records
		GROUP BY created_by
		ORDER BY MAX(created_at) DESC
	`)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()
	var out []models.ActorActivity
	for rows.Next() {
		var a models.ActorActivity
		if err := rows.Scan(&a.UserID, &a.Registrations, &a.LastCreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
