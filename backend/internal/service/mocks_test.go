package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radake/polihub/shared/config"
	"github.com/radake/polihub/shared/domain"
	internal_errors "github.com/radake/polihub/shared/errors"
)

func testTrustConfig() *config.Trust {
	return &config.Trust{
		Min:                     0,
		Max:                     100,
		Baseline:                50,
		ThrottleThreshold:       30,
		BlockThreshold:          10,
		PenaltyPerSeverity:      5,
		UpheldPenalty:           10,
		ClearedRestore:          5,
		ContributionReward:      1,
		RecoveryDelta:           2,
		RecoveryCeiling:         50,
		RecoveryInterval:        time.Hour,
		RecoveryQuietPeriod:     24 * time.Hour,
		ThrottleAfterViolations: 3,
		BlockAfterViolations:    10,
		ViolationWindow:         time.Hour,
	}
}

// --- Trust storage ---

// fakeTrustStorage keeps users and events in memory with the same
// idempotency and clamping rules as the pg storage.
type fakeTrustStorage struct {
	mu     sync.Mutex
	users  map[domain.UserId]domain.User
	events []domain.TrustScoreEvent

	AdjustTrustErr error
}

func newFakeTrustStorage() *fakeTrustStorage {
	return &fakeTrustStorage{users: make(map[domain.UserId]domain.User)}
}

func (f *fakeTrustStorage) addUser(score int) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := domain.User{Id: uuid.New(), Nickname: "TestUser", TrustScore: score, CreatedAt: time.Now()}
	f.users[u.Id] = u
	return u
}

func (f *fakeTrustStorage) score(id domain.UserId) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id].TrustScore
}

func (f *fakeTrustStorage) appliedSum(id domain.UserId) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, e := range f.events {
		if e.UserId == id {
			sum += e.Applied
		}
	}
	return sum
}

func (f *fakeTrustStorage) AdjustTrust(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string, bounds domain.ScoreBounds) (domain.TrustScoreEvent, bool, error) {
	if f.AdjustTrustErr != nil {
		return domain.TrustScoreEvent{}, false, f.AdjustTrustErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userId]
	if !ok {
		return domain.TrustScoreEvent{}, false, internal_errors.NotFound("User not found")
	}
	for _, e := range f.events {
		if e.UserId == userId && e.Cause == cause && e.CauseRef == causeRef {
			return e, false, nil
		}
	}
	score, applied := bounds.ApplyDelta(user.TrustScore, delta)
	event := domain.TrustScoreEvent{
		Id:         int64(len(f.events) + 1),
		UserId:     userId,
		Delta:      delta,
		Applied:    applied,
		Cause:      cause,
		CauseRef:   causeRef,
		ScoreAfter: score,
		CreatedAt:  time.Now(),
	}
	f.events = append(f.events, event)
	user.TrustScore = score
	f.users[userId] = user
	return event, true, nil
}

func (f *fakeTrustStorage) TrustEvents(ctx context.Context, userId domain.UserId, limit int) ([]domain.TrustScoreEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TrustScoreEvent
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		if f.events[i].UserId == userId {
			out = append(out, f.events[i])
		}
	}
	return out, nil
}

func (f *fakeTrustStorage) User(ctx context.Context, id domain.UserId) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, internal_errors.NotFound("User not found")
	}
	return u, nil
}

// --- Trust engine (used by content tests) ---

type MockTrustEngine struct {
	AdjustFunc             func(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string) (domain.TrustScoreEvent, error)
	PostingEligibilityFunc func(ctx context.Context, userId domain.UserId) (domain.Standing, error)
	RecordViolationFunc    func(ctx context.Context, userId domain.UserId) error
}

func (m *MockTrustEngine) Adjust(ctx context.Context, userId domain.UserId, delta int, cause domain.TrustCause, causeRef string) (domain.TrustScoreEvent, error) {
	if m.AdjustFunc != nil {
		return m.AdjustFunc(ctx, userId, delta, cause, causeRef)
	}
	return domain.TrustScoreEvent{UserId: userId, Delta: delta, Applied: delta, Cause: cause, CauseRef: causeRef}, nil
}

func (m *MockTrustEngine) PostingEligibility(ctx context.Context, userId domain.UserId) (domain.Standing, error) {
	if m.PostingEligibilityFunc != nil {
		return m.PostingEligibilityFunc(ctx, userId)
	}
	return domain.StandingNormal, nil
}

func (m *MockTrustEngine) RecordViolation(ctx context.Context, userId domain.UserId) error {
	if m.RecordViolationFunc != nil {
		return m.RecordViolationFunc(ctx, userId)
	}
	return nil
}

// --- Content storage ---

type MockContentStorage struct {
	SavePostFunc          func(ctx context.Context, post domain.Post) (domain.Post, error)
	SaveHeldPostFunc      func(ctx context.Context, post domain.Post, flag domain.ModerationFlag) (domain.Post, domain.ModerationFlag, error)
	PostFunc              func(ctx context.Context, id domain.PostId) (domain.Post, error)
	SaveFlagFunc          func(ctx context.Context, flag domain.ModerationFlag) (domain.ModerationFlag, error)
	FlagFunc              func(ctx context.Context, id domain.FlagId) (domain.ModerationFlag, error)
	FlagsFunc             func(ctx context.Context, status domain.FlagStatus, limit int) ([]domain.ModerationFlag, error)
	ResolveFlagFunc       func(ctx context.Context, res domain.FlagResolution) (domain.ModerationFlag, error)
	AddFlagAdjustmentFunc func(ctx context.Context, id domain.FlagId, applied int) error
}

func (m *MockContentStorage) SavePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	if m.SavePostFunc != nil {
		return m.SavePostFunc(ctx, post)
	}
	post.Id = 1
	return post, nil
}

func (m *MockContentStorage) SaveHeldPost(ctx context.Context, post domain.Post, flag domain.ModerationFlag) (domain.Post, domain.ModerationFlag, error) {
	if m.SaveHeldPostFunc != nil {
		return m.SaveHeldPostFunc(ctx, post, flag)
	}
	post.Id = 1
	post.Hidden = true
	flag.Id = 1
	flag.PostId = &post.Id
	return post, flag, nil
}

func (m *MockContentStorage) Post(ctx context.Context, id domain.PostId) (domain.Post, error) {
	if m.PostFunc != nil {
		return m.PostFunc(ctx, id)
	}
	return domain.Post{Id: id, Kind: domain.PostKindPost, Body: "hello"}, nil
}

func (m *MockContentStorage) SaveFlag(ctx context.Context, flag domain.ModerationFlag) (domain.ModerationFlag, error) {
	if m.SaveFlagFunc != nil {
		return m.SaveFlagFunc(ctx, flag)
	}
	flag.Id = 1
	return flag, nil
}

func (m *MockContentStorage) Flag(ctx context.Context, id domain.FlagId) (domain.ModerationFlag, error) {
	if m.FlagFunc != nil {
		return m.FlagFunc(ctx, id)
	}
	return domain.ModerationFlag{Id: id, Status: domain.FlagPending}, nil
}

func (m *MockContentStorage) Flags(ctx context.Context, status domain.FlagStatus, limit int) ([]domain.ModerationFlag, error) {
	if m.FlagsFunc != nil {
		return m.FlagsFunc(ctx, status, limit)
	}
	return nil, nil
}

func (m *MockContentStorage) ResolveFlag(ctx context.Context, res domain.FlagResolution) (domain.ModerationFlag, error) {
	if m.ResolveFlagFunc != nil {
		return m.ResolveFlagFunc(ctx, res)
	}
	return domain.ModerationFlag{Id: res.Id, Status: res.Status, Adjustment: res.Applied, ResolvedBy: &res.By}, nil
}

func (m *MockContentStorage) AddFlagAdjustment(ctx context.Context, id domain.FlagId, applied int) error {
	if m.AddFlagAdjustmentFunc != nil {
		return m.AddFlagAdjustmentFunc(ctx, id, applied)
	}
	return nil
}

// fakeModerationStorage keeps posts and flags in memory and follows the pg
// resolution rules: only pending flags resolve, upheld hides the post, and
// cleared publishes it only when nothing else holds it.
type fakeModerationStorage struct {
	MockContentStorage

	mu    sync.Mutex
	posts map[domain.PostId]domain.Post
	flags map[domain.FlagId]domain.ModerationFlag

	ResolveErr error
}

func newFakeModerationStorage() *fakeModerationStorage {
	return &fakeModerationStorage{
		posts: make(map[domain.PostId]domain.Post),
		flags: make(map[domain.FlagId]domain.ModerationFlag),
	}
}

func (f *fakeModerationStorage) addPost(author domain.UserId, hidden bool) domain.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := domain.Post{Id: domain.PostId(len(f.posts) + 1), UserId: author, Kind: domain.PostKindPost, Body: "body", Hidden: hidden}
	f.posts[p.Id] = p
	return p
}

func (f *fakeModerationStorage) addFlag(flag domain.ModerationFlag) domain.ModerationFlag {
	f.mu.Lock()
	defer f.mu.Unlock()
	flag.Id = domain.FlagId(len(f.flags) + 1)
	f.flags[flag.Id] = flag
	return flag
}

func (f *fakeModerationStorage) hidden(id domain.PostId) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[id].Hidden
}

func (f *fakeModerationStorage) Post(ctx context.Context, id domain.PostId) (domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return domain.Post{}, internal_errors.NotFound("Post not found")
	}
	return p, nil
}

func (f *fakeModerationStorage) Flag(ctx context.Context, id domain.FlagId) (domain.ModerationFlag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	flag, ok := f.flags[id]
	if !ok {
		return domain.ModerationFlag{}, internal_errors.NotFound("Flag not found")
	}
	return flag, nil
}

func (f *fakeModerationStorage) ResolveFlag(ctx context.Context, res domain.FlagResolution) (domain.ModerationFlag, error) {
	if f.ResolveErr != nil {
		return domain.ModerationFlag{}, f.ResolveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	flag, ok := f.flags[res.Id]
	if !ok {
		return domain.ModerationFlag{}, internal_errors.NotFound("Flag not found")
	}
	if flag.Status != domain.FlagPending {
		return domain.ModerationFlag{}, internal_errors.Conflict("Flag is already resolved")
	}
	flag.Status = res.Status
	flag.ResolvedBy = &res.By
	flag.Adjustment += res.Applied
	f.flags[flag.Id] = flag

	if flag.PostId == nil {
		return flag, nil
	}
	post := f.posts[*flag.PostId]
	switch res.Status {
	case domain.FlagUpheld:
		post.Hidden = true
	case domain.FlagCleared:
		held := false
		for _, other := range f.flags {
			if other.PostId == nil || *other.PostId != post.Id {
				continue
			}
			if other.Status == domain.FlagUpheld || (other.Status == domain.FlagPending && other.Source == domain.FlagSourceAuto) {
				held = true
			}
		}
		if !held {
			post.Hidden = false
		}
	}
	f.posts[post.Id] = post
	return flag, nil
}

type MockScreener struct {
	ScreenFunc func(content string) domain.Verdict
}

func (m *MockScreener) Screen(content string) domain.Verdict {
	if m.ScreenFunc != nil {
		return m.ScreenFunc(content)
	}
	return domain.Verdict{Action: domain.ActionAllow}
}

// --- Staff storage ---

type MockStaffStorage struct {
	SaveStaffFunc         func(ctx context.Context, staff domain.Staff) (domain.StaffId, error)
	StaffByIdFunc         func(ctx context.Context, id domain.StaffId) (domain.Staff, error)
	StaffByEmailFunc      func(ctx context.Context, email domain.Email) (domain.Staff, error)
	ListStaffFunc         func(ctx context.Context) ([]domain.Staff, error)
	UpdateStaffAccessFunc func(ctx context.Context, id domain.StaffId, role domain.Role, perms domain.PermissionSet) error
	DeactivateStaffFunc   func(ctx context.Context, id domain.StaffId) error
	CountStaffFunc        func(ctx context.Context) (int, error)
}

func (m *MockStaffStorage) SaveStaff(ctx context.Context, staff domain.Staff) (domain.StaffId, error) {
	if m.SaveStaffFunc != nil {
		return m.SaveStaffFunc(ctx, staff)
	}
	return 1, nil
}

func (m *MockStaffStorage) StaffById(ctx context.Context, id domain.StaffId) (domain.Staff, error) {
	if m.StaffByIdFunc != nil {
		return m.StaffByIdFunc(ctx, id)
	}
	return domain.Staff{Id: id, Active: true}, nil
}

func (m *MockStaffStorage) StaffByEmail(ctx context.Context, email domain.Email) (domain.Staff, error) {
	if m.StaffByEmailFunc != nil {
		return m.StaffByEmailFunc(ctx, email)
	}
	return domain.Staff{}, internal_errors.NotFound("Staff not found")
}

func (m *MockStaffStorage) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	if m.ListStaffFunc != nil {
		return m.ListStaffFunc(ctx)
	}
	return nil, nil
}

func (m *MockStaffStorage) UpdateStaffAccess(ctx context.Context, id domain.StaffId, role domain.Role, perms domain.PermissionSet) error {
	if m.UpdateStaffAccessFunc != nil {
		return m.UpdateStaffAccessFunc(ctx, id, role, perms)
	}
	return nil
}

func (m *MockStaffStorage) DeactivateStaff(ctx context.Context, id domain.StaffId) error {
	if m.DeactivateStaffFunc != nil {
		return m.DeactivateStaffFunc(ctx, id)
	}
	return nil
}

func (m *MockStaffStorage) CountStaff(ctx context.Context) (int, error) {
	if m.CountStaffFunc != nil {
		return m.CountStaffFunc(ctx)
	}
	return 0, nil
}

type MockJwt struct {
	NewUserTokenFunc  func(id domain.UserId) (string, error)
	NewStaffTokenFunc func(id domain.StaffId) (string, error)
}

func (m *MockJwt) NewUserToken(id domain.UserId) (string, error) {
	if m.NewUserTokenFunc != nil {
		return m.NewUserTokenFunc(id)
	}
	return "user-token-" + id.String(), nil
}

func (m *MockJwt) NewStaffToken(id domain.StaffId) (string, error) {
	if m.NewStaffTokenFunc != nil {
		return m.NewStaffTokenFunc(id)
	}
	return "staff-token", nil
}

type MockLogoutTrigger struct {
	TriggerFunc func(ctx context.Context) (domain.GlobalLogout, error)
}

func (m *MockLogoutTrigger) Trigger(ctx context.Context) (domain.GlobalLogout, error) {
	if m.TriggerFunc != nil {
		return m.TriggerFunc(ctx)
	}
	return domain.GlobalLogout{At: time.Now(), Version: 1}, nil
}
