package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/radake/polihub/shared/domain"
	internal_errors "github.com/radake/polihub/shared/errors"
	"github.com/radake/polihub/shared/logger"
	shared_pg "github.com/radake/polihub/shared/storage/pg"
)

// =========================================================================
// Public Methods (satisfy the service.StaffStorage interface)
// =========================================================================

func (s *Storage) SaveStaff(ctx context.Context, staff domain.Staff) (domain.StaffId, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.saveStaff(ctx, s.db, staff)
}

func (s *Storage) StaffById(ctx context.Context, id domain.StaffId) (domain.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.staffBy(ctx, s.db, "id = $1", id)
}

func (s *Storage) StaffByEmail(ctx context.Context, email domain.Email) (domain.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.staffBy(ctx, s.db, "email = $1", normalizeEmail(email))
}

func (s *Storage) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.listStaff(ctx, s.db)
}

func (s *Storage) UpdateStaffAccess(ctx context.Context, id domain.StaffId, role domain.Role, perms domain.PermissionSet) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.updateStaffAccess(ctx, s.db, id, role, perms)
}

func (s *Storage) DeactivateStaff(ctx context.Context, id domain.StaffId) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return s.deactivateStaff(ctx, s.db, id)
}

func (s *Storage) CountStaff(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM staff").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count staff: %w", err)
	}
	return n, nil
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

const staffColumns = "id, email, password_hash, role, permissions, is_active, created_at"

func normalizeEmail(email domain.Email) domain.Email {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanStaff(row interface{ Scan(...any) error }) (domain.Staff, error) {
	var (
		st  domain.Staff
		raw sql.NullString
	)
	if err := row.Scan(&st.Id, &st.Email, &st.PassHash, &st.Role, &raw, &st.Active, &st.CreatedAt); err != nil {
		return domain.Staff{}, err
	}
	perms, err := domain.ParsePermissionSet(raw.String)
	if err != nil {
		// fail closed: the set is already empty
		logger.Log.Warn("malformed staff permissions", "staff_id", st.Id, "error", err)
	}
	st.Permissions = perms
	return st, nil
}

func (s *Storage) saveStaff(ctx context.Context, q Querier, st domain.Staff) (domain.StaffId, error) {
	var id domain.StaffId
	err := q.QueryRowContext(ctx, `
		INSERT INTO staff (email, password_hash, role, permissions, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id`,
		normalizeEmail(st.Email), st.PassHash, st.Role, st.Permissions.Encode(),
	).Scan(&id)
	if err != nil {
		if shared_pg.IsUniqueViolation(err, "staff_email_key") {
			return 0, internal_errors.Conflict("Staff email already registered")
		}
		return 0, fmt.Errorf("failed to insert staff: %w", err)
	}
	return id, nil
}

func (s *Storage) staffBy(ctx context.Context, q Querier, where string, arg any) (domain.Staff, error) {
	st, err := scanStaff(q.QueryRowContext(ctx, "SELECT "+staffColumns+" FROM staff WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Staff{}, internal_errors.NotFound("Staff not found")
		}
		return domain.Staff{}, fmt.Errorf("failed to query staff: %w", err)
	}
	return st, nil
}

func (s *Storage) listStaff(ctx context.Context, q Querier) ([]domain.Staff, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+staffColumns+" FROM staff ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	var result []domain.Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff: %w", err)
	}
	return result, nil
}

func (s *Storage) updateStaffAccess(ctx context.Context, q Querier, id domain.StaffId, role domain.Role, perms domain.PermissionSet) error {
	result, err := q.ExecContext(ctx, "UPDATE staff SET role = $2, permissions = $3 WHERE id = $1", id, role, perms.Encode())
	if err != nil {
		return fmt.Errorf("failed to update staff access: %w", err)
	}
	return expectOneRow(result, "Staff not found")
}

func (s *Storage) deactivateStaff(ctx context.Context, q Querier, id domain.StaffId) error {
	result, err := q.ExecContext(ctx, "UPDATE staff SET is_active = FALSE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to deactivate staff: %w", err)
	}
	return expectOneRow(result, "Staff not found")
}

// expectOneRow turns "nothing updated" into a 404.
func expectOneRow(result sql.Result, notFound string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return internal_errors.NotFound(notFound)
	}
	return nil
}
