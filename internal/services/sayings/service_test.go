package sayings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/twokinds/twokinds-api/internal/models"
	"github.com/twokinds/twokinds-api/internal/moderation"
	"github.com/twokinds/twokinds-api/internal/ratelimit"
	"go.uber.org/zap"
)

// calls records the order of collaborator invocations so gate-order tests
// can assert that, for example, moderation never runs before the rate
// limit check.
type calls struct {
	order []string
}

func (c *calls) add(name string) {
	c.order = append(c.order, name)
}

type fakeSayingStore struct {
	calls     *calls
	sayings   map[int64]*models.Saying
	nextID    int64
	createErr error
}

func (s *fakeSayingStore) Create(_ context.Context, saying *models.Saying) error {
	s.calls.add("sayings.Create")
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	saying.ID = s.nextID
	copied := *saying
	s.sayings[saying.ID] = &copied
	return nil
}

func (s *fakeSayingStore) GetByID(_ context.Context, id int64) (*models.Saying, error) {
	saying, ok := s.sayings[id]
	if !ok {
		return nil, fmt.Errorf("saying not found: %w", sql.ErrNoRows)
	}
	copied := *saying
	return &copied, nil
}

func (s *fakeSayingStore) GetViewByID(_ context.Context, id, viewerID int64) (*models.SayingView, error) {
	saying, ok := s.sayings[id]
	if !ok {
		return nil, fmt.Errorf("saying not found: %w", sql.ErrNoRows)
	}
	return &models.SayingView{Saying: *saying, IntroText: "intro", TypeName: "type"}, nil
}

func (s *fakeSayingStore) ListViews(_ context.Context, viewerID int64, page, pageSize int) ([]*models.SayingView, int, error) {
	var views []*models.SayingView
	for _, saying := range s.sayings {
		views = append(views, &models.SayingView{Saying: *saying})
	}
	return views, len(s.sayings), nil
}

func (s *fakeSayingStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.sayings[id]; !ok {
		return fmt.Errorf("saying not found: %w", sql.ErrNoRows)
	}
	delete(s.sayings, id)
	return nil
}

type fakeLikeStore struct {
	calls     *calls
	likes     map[string]*models.Like
	nextID    int64
	createErr error
}

func likeKey(userID, sayingID int64) string {
	return fmt.Sprintf("%d|%d", userID, sayingID)
}

func (s *fakeLikeStore) Get(_ context.Context, userID, sayingID int64) (*models.Like, error) {
	like, ok := s.likes[likeKey(userID, sayingID)]
	if !ok {
		return nil, fmt.Errorf("like not found: %w", sql.ErrNoRows)
	}
	copied := *like
	return &copied, nil
}

func (s *fakeLikeStore) Create(_ context.Context, like *models.Like) error {
	s.calls.add("likes.Create")
	if s.createErr != nil {
		return s.createErr
	}
	key := likeKey(like.UserID, like.SayingID)
	if _, exists := s.likes[key]; exists {
		return &pq.Error{Code: "23505", Constraint: "likes_user_saying_idx"}
	}
	s.nextID++
	like.ID = s.nextID
	copied := *like
	s.likes[key] = &copied
	return nil
}

func (s *fakeLikeStore) Delete(_ context.Context, userID, sayingID int64) (bool, error) {
	key := likeKey(userID, sayingID)
	if _, ok := s.likes[key]; !ok {
		return false, nil
	}
	delete(s.likes, key)
	return true, nil
}

func (s *fakeLikeStore) CountBySaying(_ context.Context, sayingID int64) (int, error) {
	count := 0
	for _, like := range s.likes {
		if like.SayingID == sayingID {
			count++
		}
	}
	return count, nil
}

type fakeIntroStore struct {
	intros map[int64]*models.Intro
}

func (s *fakeIntroStore) List(_ context.Context) ([]*models.Intro, error) {
	var intros []*models.Intro
	for _, intro := range s.intros {
		intros = append(intros, intro)
	}
	return intros, nil
}

func (s *fakeIntroStore) GetByID(_ context.Context, id int64) (*models.Intro, error) {
	intro, ok := s.intros[id]
	if !ok {
		return nil, fmt.Errorf("intro not found: %w", sql.ErrNoRows)
	}
	return intro, nil
}

type fakeTypeStore struct {
	calls  *calls
	types  map[int64]*models.SayingType
	nextID int64
}

func (s *fakeTypeStore) List(_ context.Context) ([]*models.SayingType, error) {
	var types []*models.SayingType
	for _, t := range s.types {
		types = append(types, t)
	}
	return types, nil
}

func (s *fakeTypeStore) GetByID(_ context.Context, id int64) (*models.SayingType, error) {
	t, ok := s.types[id]
	if !ok {
		return nil, fmt.Errorf("type not found: %w", sql.ErrNoRows)
	}
	return t, nil
}

func (s *fakeTypeStore) Create(_ context.Context, t *models.SayingType) error {
	s.calls.add("types.Create")
	s.nextID++
	t.ID = s.nextID
	copied := *t
	s.types[t.ID] = &copied
	return nil
}

// fakeLimiter denies the actions listed in deny and records everything else
type fakeLimiter struct {
	calls    *calls
	deny     map[string]bool
	recorded []string
}

func (l *fakeLimiter) CheckLimit(_ context.Context, check ratelimit.Check) ratelimit.Result {
	l.calls.add("limiter.CheckLimit:" + check.Action)
	if l.deny[check.Action] {
		return ratelimit.Result{Allowed: false, RetryMessage: "Rate limit exceeded. Try again in 1 hour."}
	}
	return ratelimit.Result{Allowed: true, Limit: 10, Remaining: 10}
}

func (l *fakeLimiter) RecordAction(_ context.Context, check ratelimit.Check) {
	l.calls.add("limiter.RecordAction:" + check.Action)
	l.recorded = append(l.recorded, check.Action)
}

// flaggingModerator flags text containing the trigger substring
type flaggingModerator struct {
	calls   *calls
	trigger string
}

func (m *flaggingModerator) Moderate(_ context.Context, input moderation.Input) (moderation.Result, error) {
	m.calls.add("moderator.Moderate")
	if m.trigger != "" && strings.Contains(input.Text, m.trigger) {
		return moderation.Result{
			IsSafe:     false,
			Reason:     "Content flagged for: harassment",
			Categories: []string{"harassment"},
		}, nil
	}
	return moderation.Result{IsSafe: true}, nil
}

type recordingSink struct {
	events []*models.AuditEvent
}

func (s *recordingSink) Record(_ context.Context, event *models.AuditEvent) {
	s.events = append(s.events, event)
}

func (s *recordingSink) actions() []string {
	var actions []string
	for _, e := range s.events {
		actions = append(actions, e.Action)
	}
	return actions
}

type fixture struct {
	service   *Service
	calls     *calls
	sayings   *fakeSayingStore
	likes     *fakeLikeStore
	intros    *fakeIntroStore
	types     *fakeTypeStore
	limiter   *fakeLimiter
	moderator *flaggingModerator
	sink      *recordingSink
}

func newFixture() *fixture {
	c := &calls{}
	f := &fixture{
		calls:     c,
		sayings:   &fakeSayingStore{calls: c, sayings: make(map[int64]*models.Saying)},
		likes:     &fakeLikeStore{calls: c, likes: make(map[string]*models.Like)},
		intros:    &fakeIntroStore{intros: map[int64]*models.Intro{1: {ID: 1, IntroText: "There are two kinds of people in this world..."}}},
		types:     &fakeTypeStore{calls: c, types: map[int64]*models.SayingType{1: {ID: 1, Name: "coffee drinkers"}}, nextID: 1},
		limiter:   &fakeLimiter{calls: c, deny: make(map[string]bool)},
		moderator: &flaggingModerator{calls: c, trigger: "FLAGME"},
		sink:      &recordingSink{},
	}
	f.service = NewService(f.sayings, f.likes, f.intros, f.types, f.limiter, f.moderator, f.sink, zap.NewNop())
	return f
}

func validInput() CreateSayingInput {
	return CreateSayingInput{
		IntroID:    1,
		TypeID:     1,
		FirstKind:  "those who like it black",
		SecondKind: "those who need milk",
	}
}

func TestCreateSaying_Success(t *testing.T) {
	t.Parallel()
	f := newFixture()

	view, err := f.service.CreateSaying(context.Background(), 7, validInput())
	if err != nil {
		t.Fatalf("CreateSaying() error = %v", err)
	}
	if view.UserID != 7 || view.FirstKind != "those who like it black" {
		t.Errorf("CreateSaying() = %+v, want caller's saying", view)
	}
	if got := f.limiter.recorded; len(got) != 1 || got[0] != ratelimit.ActionCreateSaying {
		t.Errorf("recorded quota = %v, want [create_saying]", got)
	}
	if actions := f.sink.actions(); len(actions) != 1 || actions[0] != models.AuditActionSayingCreated {
		t.Errorf("audit actions = %v, want [saying_created]", actions)
	}
}

func TestCreateSaying_GateOrder(t *testing.T) {
	t.Parallel()
	f := newFixture()

	if _, err := f.service.CreateSaying(context.Background(), 7, validInput()); err != nil {
		t.Fatalf("CreateSaying() error = %v", err)
	}

	want := []string{
		"limiter.CheckLimit:" + ratelimit.ActionCreateSaying,
		"moderator.Moderate",
		"sayings.Create",
		"limiter.RecordAction:" + ratelimit.ActionCreateSaying,
	}
	if len(f.calls.order) != len(want) {
		t.Fatalf("call order = %v, want %v", f.calls.order, want)
	}
	for i, name := range want {
		if f.calls.order[i] != name {
			t.Fatalf("call order = %v, want %v", f.calls.order, want)
		}
	}
}

func TestCreateSaying_RateLimited(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.limiter.deny[ratelimit.ActionCreateSaying] = true

	_, err := f.service.CreateSaying(context.Background(), 7, validInput())
	var limitErr *RateLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("CreateSaying() error = %v, want RateLimitError", err)
	}
	if limitErr.Message == "" {
		t.Error("RateLimitError has empty retry message")
	}
	if len(f.sayings.sayings) != 0 {
		t.Error("saying persisted despite denied rate limit")
	}
	if len(f.limiter.recorded) != 0 {
		t.Errorf("quota recorded for denied action: %v", f.limiter.recorded)
	}
	for _, name := range f.calls.order {
		if name == "moderator.Moderate" {
			t.Error("moderation ran for a rate limited request")
		}
	}
	if actions := f.sink.actions(); len(actions) != 1 || actions[0] != models.AuditActionRateLimited {
		t.Errorf("audit actions = %v, want [rate_limited]", actions)
	}
}

func TestCreateSaying_ModerationRejected(t *testing.T) {
	t.Parallel()
	f := newFixture()
	input := validInput()
	input.FirstKind = "those who FLAGME loudly"

	_, err := f.service.CreateSaying(context.Background(), 7, input)
	var modErr *ModerationError
	if !errors.As(err, &modErr) {
		t.Fatalf("CreateSaying() error = %v, want ModerationError", err)
	}
	if len(f.sayings.sayings) != 0 {
		t.Error("saying persisted despite moderation rejection")
	}
	if len(f.limiter.recorded) != 0 {
		t.Errorf("quota recorded for rejected content: %v", f.limiter.recorded)
	}
	if actions := f.sink.actions(); len(actions) != 1 || actions[0] != models.AuditActionModerationRejected {
		t.Errorf("audit actions = %v, want [moderation_rejected]", actions)
	}
}

func TestCreateSaying_NewType(t *testing.T) {
	t.Parallel()
	f := newFixture()
	input := validInput()
	input.TypeID = 0
	input.NewTypeName = "tea drinkers"

	view, err := f.service.CreateSaying(context.Background(), 7, input)
	if err != nil {
		t.Fatalf("CreateSaying() error = %v", err)
	}
	if view.TypeID == 1 {
		t.Error("saying reused existing type, want new type row")
	}
	want := map[string]bool{ratelimit.ActionCreateSaying: true, ratelimit.ActionCreateType: true}
	for _, action := range f.limiter.recorded {
		delete(want, action)
	}
	if len(want) != 0 {
		t.Errorf("recorded quota = %v, missing %v", f.limiter.recorded, want)
	}
}

func TestCreateSaying_NewTypeSurvivesSayingFailure(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.sayings.createErr = errors.New("disk full")
	input := validInput()
	input.TypeID = 0
	input.NewTypeName = "tea drinkers"

	_, err := f.service.CreateSaying(context.Background(), 7, input)
	if err == nil {
		t.Fatal("CreateSaying() error = nil, want saying insert failure")
	}
	// The type row is valid on its own and deliberately survives.
	if len(f.types.types) != 2 {
		t.Errorf("type count = %d, want 2 (new type persisted)", len(f.types.types))
	}
}

func TestCreateSaying_Validation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*CreateSayingInput)
		field  string
	}{
		{"first kind too short", func(in *CreateSayingInput) { in.FirstKind = "ab" }, "firstKind"},
		{"second kind too long", func(in *CreateSayingInput) { in.SecondKind = strings.Repeat("x", 101) }, "secondKind"},
		{"whitespace only kind", func(in *CreateSayingInput) { in.FirstKind = "   " }, "firstKind"},
		{"no type", func(in *CreateSayingInput) { in.TypeID = 0 }, "typeId"},
		{"both type fields", func(in *CreateSayingInput) { in.NewTypeName = "extra" }, "typeId"},
		{"unknown intro", func(in *CreateSayingInput) { in.IntroID = 99 }, "introId"},
		{"unknown type", func(in *CreateSayingInput) { in.TypeID = 99 }, "typeId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture()
			input := validInput()
			tt.mutate(&input)

			_, err := f.service.CreateSaying(context.Background(), 7, input)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("CreateSaying() error = %v, want ValidationError", err)
			}
			if valErr.Field != tt.field {
				t.Errorf("field = %q, want %q", valErr.Field, tt.field)
			}
		})
	}
}

func TestCreateSaying_MultibyteKindLengths(t *testing.T) {
	t.Parallel()
	f := newFixture()

	// 50 characters but 150 bytes; length bounds count characters.
	input := validInput()
	input.FirstKind = strings.Repeat("猫", 50)

	view, err := f.service.CreateSaying(context.Background(), 7, input)
	if err != nil {
		t.Fatalf("CreateSaying() error = %v, want 50-character kind accepted", err)
	}
	if view.FirstKind != input.FirstKind {
		t.Errorf("FirstKind = %q, want %q", view.FirstKind, input.FirstKind)
	}

	input = validInput()
	input.SecondKind = strings.Repeat("猫", 101)
	_, err = f.service.CreateSaying(context.Background(), 7, input)
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Field != "secondKind" {
		t.Errorf("CreateSaying() error = %v, want ValidationError on secondKind", err)
	}
}

func TestDelete_OwnerOnly(t *testing.T) {
	t.Parallel()
	f := newFixture()
	view, err := f.service.CreateSaying(context.Background(), 7, validInput())
	if err != nil {
		t.Fatalf("CreateSaying() error = %v", err)
	}

	if err := f.service.Delete(context.Background(), view.ID, 8, models.RoleUser); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete() by non-owner = %v, want ErrForbidden", err)
	}
	if err := f.service.Delete(context.Background(), view.ID, 8, models.RoleAdmin); err != nil {
		t.Errorf("Delete() by admin = %v, want success", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	t.Parallel()
	f := newFixture()
	if err := f.service.Delete(context.Background(), 99, 7, models.RoleUser); !errors.Is(err, ErrSayingNotFound) {
		t.Errorf("Delete() = %v, want ErrSayingNotFound", err)
	}
}
