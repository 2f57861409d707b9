package service

import (
	"context"
	stderrors "errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/errors"
	"github.com/radake/polihub/shared/logger"
	"github.com/radake/polihub/shared/middleware/metrics"
)

const minPasswordLen = 12

type StaffService interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.Staff, string, error)
	Provision(ctx context.Context, creds domain.Credentials, role domain.Role, perms *domain.PermissionSet) (domain.Staff, error)
	List(ctx context.Context) ([]domain.Staff, error)
	UpdateAccess(ctx context.Context, actor, id domain.StaffId, role domain.Role, perms domain.PermissionSet) (domain.Staff, error)
	Deactivate(ctx context.Context, actor, id domain.StaffId) error
	GlobalLogout(ctx context.Context) (domain.GlobalLogout, error)
}

type StaffStorage interface {
	SaveStaff(ctx context.Context, staff domain.Staff) (domain.StaffId, error)
	StaffById(ctx context.Context, id domain.StaffId) (domain.Staff, error)
	StaffByEmail(ctx context.Context, email domain.Email) (domain.Staff, error)
	ListStaff(ctx context.Context) ([]domain.Staff, error)
	UpdateStaffAccess(ctx context.Context, id domain.StaffId, role domain.Role, perms domain.PermissionSet) error
	DeactivateStaff(ctx context.Context, id domain.StaffId) error
	CountStaff(ctx context.Context) (int, error)
}

type StaffJwt interface {
	NewStaffToken(id domain.StaffId) (string, error)
}

type LogoutTrigger interface {
	Trigger(ctx context.Context) (domain.GlobalLogout, error)
}

type Staff struct {
	storage StaffStorage
	jwt     StaffJwt
	marker  LogoutTrigger
	// compared against when the email is unknown, so both paths cost one bcrypt check
	dummyHash []byte
}

func NewStaff(storage StaffStorage, jwt StaffJwt, marker LogoutTrigger) *Staff {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("polihub-dummy-password"), bcrypt.DefaultCost)
	return &Staff{storage: storage, jwt: jwt, marker: marker, dummyHash: dummy}
}

func (s *Staff) Login(ctx context.Context, creds domain.Credentials) (domain.Staff, string, error) {
	invalid := errors.Unauthenticated("Invalid credentials")

	staff, err := s.storage.StaffByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		if errors.IsNotFound(err) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(creds.Password))
			return domain.Staff{}, "", invalid
		}
		return domain.Staff{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.PassHash), []byte(creds.Password)); err != nil {
		if stderrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.Log.Info("staff login failed", "staff_id", staff.Id)
			return domain.Staff{}, "", invalid
		}
		return domain.Staff{}, "", err
	}
	if !staff.Active {
		return domain.Staff{}, "", invalid
	}

	token, err := s.jwt.NewStaffToken(staff.Id)
	if err != nil {
		return domain.Staff{}, "", err
	}
	logger.Log.Info("staff logged in", "staff_id", staff.Id, "role", staff.Role)
	return staff, token, nil
}

// Provision creates a staff account. Without explicit permissions the role
// template is used.
func (s *Staff) Provision(ctx context.Context, creds domain.Credentials, role domain.Role, perms *domain.PermissionSet) (domain.Staff, error) {
	if !role.Valid() {
		return domain.Staff{}, errors.Validation("Unknown role")
	}
	if len(creds.Password) < minPasswordLen {
		return domain.Staff{}, errors.Validation("Password is too short")
	}
	email := normalizeEmail(creds.Email)
	if email == "" {
		return domain.Staff{}, errors.Validation("Email is required")
	}

	set := domain.DefaultPermissions(role)
	if perms != nil {
		if err := checkKnown(*perms); err != nil {
			return domain.Staff{}, err
		}
		set = *perms
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Staff{}, err
	}

	staff := domain.Staff{
		Email:       email,
		PassHash:    string(hash),
		Role:        role,
		Permissions: set,
		Active:      true,
	}
	id, err := s.storage.SaveStaff(ctx, staff)
	if err != nil {
		return domain.Staff{}, err
	}
	logger.Log.Info("staff provisioned", "staff_id", id, "role", role, "permissions", set.Names())
	return s.storage.StaffById(ctx, id)
}

func (s *Staff) List(ctx context.Context) ([]domain.Staff, error) {
	return s.storage.ListStaff(ctx)
}

func (s *Staff) UpdateAccess(ctx context.Context, actor, id domain.StaffId, role domain.Role, perms domain.PermissionSet) (domain.Staff, error) {
	if actor == id {
		return domain.Staff{}, errors.Unauthorized("You cannot change your own access")
	}
	if !role.Valid() {
		return domain.Staff{}, errors.Validation("Unknown role")
	}
	if err := checkKnown(perms); err != nil {
		return domain.Staff{}, err
	}
	if err := s.storage.UpdateStaffAccess(ctx, id, role, perms); err != nil {
		return domain.Staff{}, err
	}
	logger.Log.Info("staff access updated", "staff_id", id, "by", actor, "role", role, "permissions", perms.Names())
	return s.storage.StaffById(ctx, id)
}

func (s *Staff) Deactivate(ctx context.Context, actor, id domain.StaffId) error {
	if actor == id {
		return errors.Unauthorized("You cannot deactivate yourself")
	}
	if err := s.storage.DeactivateStaff(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("staff deactivated", "staff_id", id, "by", actor)
	return nil
}

func (s *Staff) GlobalLogout(ctx context.Context) (domain.GlobalLogout, error) {
	g, err := s.marker.Trigger(ctx)
	if err != nil {
		return domain.GlobalLogout{}, err
	}
	metrics.GlobalLogoutsTotal.Inc()
	return g, nil
}

// Bootstrap provisions the first admin when the staff table is empty.
func (s *Staff) Bootstrap(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	count, err := s.storage.CountStaff(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	all := domain.AllPermissions()
	staff, err := s.Provision(ctx, domain.Credentials{Email: email, Password: password}, domain.RoleAdmin, &all)
	if err != nil {
		return err
	}
	logger.Log.Info("bootstrap admin provisioned", "staff_id", staff.Id, "email", staff.Email)
	return nil
}

func checkKnown(set domain.PermissionSet) error {
	for _, p := range set.Names() {
		if !p.Known() {
			return errors.Validation("Unknown permission " + string(p))
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
