package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/radake/polihub/shared/config"
	"github.com/radake/polihub/shared/domain"
	mw "github.com/radake/polihub/shared/middleware"
)

func testConfig() *config.Config {
	return &config.Config{Public: config.Public{
		UserJwtTTL:  720 * time.Hour,
		StaffJwtTTL: 12 * time.Hour,
	}}
}

func withIdentity(r *http.Request, identity *domain.Identity) *http.Request {
	return r.WithContext(mw.WithIdentity(r.Context(), identity))
}

type MockIdentityService struct {
	MockCreate        func(ctx context.Context, current *domain.UserId, requested domain.Profile) (domain.User, string, bool, error)
	MockMe            func(ctx context.Context, id domain.UserId) (domain.User, error)
	MockUpdateProfile func(ctx context.Context, id domain.UserId, profile domain.Profile) (domain.User, error)
}

func (m *MockIdentityService) Create(ctx context.Context, current *domain.UserId, requested domain.Profile) (domain.User, string, bool, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, current, requested)
	}
	return domain.User{}, "", false, nil
}

func (m *MockIdentityService) Me(ctx context.Context, id domain.UserId) (domain.User, error) {
	if m.MockMe != nil {
		return m.MockMe(ctx, id)
	}
	return domain.User{Id: id}, nil
}

func (m *MockIdentityService) UpdateProfile(ctx context.Context, id domain.UserId, profile domain.Profile) (domain.User, error) {
	if m.MockUpdateProfile != nil {
		return m.MockUpdateProfile(ctx, id, profile)
	}
	return domain.User{Id: id}, nil
}

type MockTrustService struct {
	MockAdjust             func(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string) (domain.TrustScoreEvent, error)
	MockStanding           func(ctx context.Context, userId domain.UserId) (domain.User, domain.Standing, error)
	MockPostingEligibility func(ctx context.Context, userId domain.UserId) (domain.Standing, error)
	MockRecordViolation    func(ctx context.Context, userId domain.UserId) error
	MockRestore            func(ctx context.Context, userId domain.UserId, by domain.StaffId) (domain.User, domain.Standing, error)
	MockHistory            func(ctx context.Context, userId domain.UserId) ([]domain.TrustScoreEvent, error)
	MockManualAdjust       func(ctx context.Context, userId domain.UserId, delta int, causeRef string, by domain.StaffId) (domain.TrustScoreEvent, domain.Standing, error)
}

func (m *MockTrustService) Adjust(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string) (domain.TrustScoreEvent, error) {
	if m.MockAdjust != nil {
		return m.MockAdjust(ctx, userId, delta, cause, causeRef)
	}
	return domain.TrustScoreEvent{}, nil
}

func (m *MockTrustService) Standing(ctx context.Context, userId domain.UserId) (domain.User, domain.Standing, error) {
	if m.MockStanding != nil {
		return m.MockStanding(ctx, userId)
	}
	return domain.User{Id: userId, TrustScore: 50}, domain.StandingNormal, nil
}

func (m *MockTrustService) PostingEligibility(ctx context.Context, userId domain.UserId) (domain.Standing, error) {
	if m.MockPostingEligibility != nil {
		return m.MockPostingEligibility(ctx, userId)
	}
	return domain.StandingNormal, nil
}

func (m *MockTrustService) RecordViolation(ctx context.Context, userId domain.UserId) error {
	if m.MockRecordViolation != nil {
		return m.MockRecordViolation(ctx, userId)
	}
	return nil
}

func (m *MockTrustService) Restore(ctx context.Context, userId domain.UserId, by domain.StaffId) (domain.User, domain.Standing, error) {
	if m.MockRestore != nil {
		return m.MockRestore(ctx, userId, by)
	}
	return domain.User{Id: userId}, domain.StandingNormal, nil
}

func (m *MockTrustService) History(ctx context.Context, userId domain.UserId) ([]domain.TrustScoreEvent, error) {
	if m.MockHistory != nil {
		return m.MockHistory(ctx, userId)
	}
	return nil, nil
}

func (m *MockTrustService) ManualAdjust(ctx context.Context, userId domain.UserId, delta int, causeRef string, by domain.StaffId) (domain.TrustScoreEvent, domain.Standing, error) {
	if m.MockManualAdjust != nil {
		return m.MockManualAdjust(ctx, userId, delta, causeRef, by)
	}
	return domain.TrustScoreEvent{}, domain.StandingNormal, nil
}

type MockContentService struct {
	MockSubmit      func(ctx context.Context, userId domain.UserId, sub domain.Submission) (domain.SubmissionResult, error)
	MockPost        func(ctx context.Context, id domain.PostId) (domain.Post, string, error)
	MockReport      func(ctx context.Context, reporter domain.UserId, postId domain.PostId, reason string) (domain.ModerationFlag, error)
	MockFlags       func(ctx context.Context, status domain.FlagStatus) ([]domain.ModerationFlag, error)
	MockResolveFlag func(ctx context.Context, id domain.FlagId, status domain.FlagStatus, by domain.StaffId) (domain.ModerationFlag, error)
}

func (m *MockContentService) Submit(ctx context.Context, userId domain.UserId, sub domain.Submission) (domain.SubmissionResult, error) {
	if m.MockSubmit != nil {
		return m.MockSubmit(ctx, userId, sub)
	}
	return domain.SubmissionResult{Verdict: domain.Verdict{Action: domain.ActionAllow}}, nil
}

func (m *MockContentService) Post(ctx context.Context, id domain.PostId) (domain.Post, string, error) {
	if m.MockPost != nil {
		return m.MockPost(ctx, id)
	}
	return domain.Post{Id: id}, "", nil
}

func (m *MockContentService) Report(ctx context.Context, reporter domain.UserId, postId domain.PostId, reason string) (domain.ModerationFlag, error) {
	if m.MockReport != nil {
		return m.MockReport(ctx, reporter, postId, reason)
	}
	return domain.ModerationFlag{}, nil
}

func (m *MockContentService) Flags(ctx context.Context, status domain.FlagStatus) ([]domain.ModerationFlag, error) {
	if m.MockFlags != nil {
		return m.MockFlags(ctx, status)
	}
	return nil, nil
}

func (m *MockContentService) ResolveFlag(ctx context.Context, id domain.FlagId, status domain.FlagStatus, by domain.StaffId) (domain.ModerationFlag, error) {
	if m.MockResolveFlag != nil {
		return m.MockResolveFlag(ctx, id, status, by)
	}
	return domain.ModerationFlag{Id: id, Status: status}, nil
}

type MockStaffService struct {
	MockLogin        func(ctx context.Context, creds domain.Credentials) (domain.Staff, string, error)
	MockProvision    func(ctx context.Context, creds domain.Credentials, role domain.Role, perms *domain.PermissionSet) (domain.Staff, error)
	MockList         func(ctx context.Context) ([]domain.Staff, error)
	MockUpdateAccess func(ctx context.Context, actor, id domain.StaffId, role domain.Role, perms domain.PermissionSet) (domain.Staff, error)
	MockDeactivate   func(ctx context.Context, actor, id domain.StaffId) error
	MockGlobalLogout func(ctx context.Context) (domain.GlobalLogout, error)
}

func (m *MockStaffService) Login(ctx context.Context, creds domain.Credentials) (domain.Staff, string, error) {
	if m.MockLogin != nil {
		return m.MockLogin(ctx, creds)
	}
	return domain.Staff{Id: 1}, "staff-token", nil
}

func (m *MockStaffService) Provision(ctx context.Context, creds domain.Credentials, role domain.Role, perms *domain.PermissionSet) (domain.Staff, error) {
	if m.MockProvision != nil {
		return m.MockProvision(ctx, creds, role, perms)
	}
	return domain.Staff{Id: 2, Email: creds.Email, Role: role}, nil
}

func (m *MockStaffService) List(ctx context.Context) ([]domain.Staff, error) {
	if m.MockList != nil {
		return m.MockList(ctx)
	}
	return nil, nil
}

func (m *MockStaffService) UpdateAccess(ctx context.Context, actor, id domain.StaffId, role domain.Role, perms domain.PermissionSet) (domain.Staff, error) {
	if m.MockUpdateAccess != nil {
		return m.MockUpdateAccess(ctx, actor, id, role, perms)
	}
	return domain.Staff{Id: id, Role: role, Permissions: perms}, nil
}

func (m *MockStaffService) Deactivate(ctx context.Context, actor, id domain.StaffId) error {
	if m.MockDeactivate != nil {
		return m.MockDeactivate(ctx, actor, id)
	}
	return nil
}

func (m *MockStaffService) GlobalLogout(ctx context.Context) (domain.GlobalLogout, error) {
	if m.MockGlobalLogout != nil {
		return m.MockGlobalLogout(ctx)
	}
	return domain.GlobalLogout{At: time.Now(), Version: 1}, nil
}

type MockPoliticianService struct {
	MockCreate func(ctx context.Context, p domain.Politician) (domain.Politician, error)
	MockUpdate func(ctx context.Context, p domain.Politician) (domain.Politician, error)
	MockDelete func(ctx context.Context, id domain.PoliticianId) error
	MockList   func(ctx context.Context) ([]domain.Politician, error)
}

func (m *MockPoliticianService) Create(ctx context.Context, p domain.Politician) (domain.Politician, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, p)
	}
	p.Id = 1
	return p, nil
}

func (m *MockPoliticianService) Update(ctx context.Context, p domain.Politician) (domain.Politician, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, p)
	}
	return p, nil
}

func (m *MockPoliticianService) Delete(ctx context.Context, id domain.PoliticianId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, id)
	}
	return nil
}

func (m *MockPoliticianService) List(ctx context.Context) ([]domain.Politician, error) {
	if m.MockList != nil {
		return m.MockList(ctx)
	}
	return nil, nil
}

type MockHealthChecker struct {
	MockPing func(ctx context.Context) error
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	if m.MockPing != nil {
		return m.MockPing(ctx)
	}
	return nil
}
