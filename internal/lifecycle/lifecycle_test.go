package lifecycle

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/events"
	"jobpilot/internal/store"
	"jobpilot/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

// fakeGenerator returns a quiz whose correct answer is always "a", or a set
// of coding challenges
type fakeGenerator struct {
	calls     atomic.Int32
	questions int
	title     string
	delay     time.Duration
	err       error
	result    *types.GeneratedTest
	lastInput *types.GenerateTestInput
	mu        sync.Mutex
	// wait blocks each call until it is closed or the call's context ends
	wait chan struct{}
}

func (g *fakeGenerator) GenerateTest(ctx context.Context, input *types.GenerateTestInput) (*types.GeneratedTest, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.lastInput = input
	g.mu.Unlock()

	if g.wait != nil {
		select {
		case <-g.wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.err != nil {
		return nil, g.err
	}
	if g.result != nil {
		return g.result, nil
	}

	n := g.questions
	if n == 0 {
		n = 10
	}
	out := &types.GeneratedTest{Title: g.title, Description: "generated", TimeLimitMinutes: 20}
	for i := 1; i <= n; i++ {
		q := types.Question{ID: i, Difficulty: "easy"}
		if input.TestType == types.TestTypeQuiz {
			q.Question = fmt.Sprintf("Question %d", i)
			q.Options = []types.Option{{ID: "a", Text: "right"}, {ID: "b", Text: "wrong"}, {ID: "c", Text: "wrong"}, {ID: "d", Text: "wrong"}}
			q.CorrectAnswer = "a"
		} else {
			q.Title = fmt.Sprintf("Challenge %d", i)
			q.StarterCode = "func solve() {}"
		}
		out.Questions = append(out.Questions, q)
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ApplicationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.ApplicationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// failingRepo wraps a real store and injects status update failures
type failingRepo struct {
	Repository
	statusErr error
	insertErr error
}

func (r *failingRepo) UpdateApplicationStatus(ctx context.Context, ownerID, id string, status types.ApplicationStatus, at time.Time) error {
	if r.statusErr != nil {
		return r.statusErr
	}
	return r.Repository.UpdateApplicationStatus(ctx, ownerID, id, status, at)
}

func (r *failingRepo) InsertTest(ctx context.Context, t *types.Test) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	return r.Repository.InsertTest(ctx, t)
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, config.DatabaseConfig{
		Driver: "sqlite3",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

// steppingClock advances one second per call so creation order is stable
func steppingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newManager(repo Repository, gen TestGenerator, pub events.Publisher) *Manager {
	logger := errors.NewLoggerTo(io.Discard, slog.LevelError)
	cfg := config.LifecycleConfig{GenerateTimeout: 2 * time.Second, StoreTimeout: 2 * time.Second}
	return NewManager(repo, gen, pub, cfg, logger, WithClock(steppingClock()))
}

func createApplication(t *testing.T, m *Manager) *types.JobApplication {
	t.Helper()
	app, err := m.CreateApplication(context.Background(), owner, NewApplication{
		CompanyName:  "Acme",
		RoleTitle:    "Backend Engineer",
		Requirements: []string{"Go\nPostgreSQL", " ", "Kubernetes"},
	})
	require.NoError(t, err)
	return app
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, code), "expected %s, got %v", code, err)
}

func TestBackendEngineerQuizScenario(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	gen := &fakeGenerator{questions: 10}
	pub := &recordingPublisher{}
	m := newManager(s, gen, pub)
	app := createApplication(t, m)

	view, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
	require.NoError(t, err)
	assert.Equal(t, ModeInProgress, view.Mode)
	assert.Len(t, view.Test.Questions, 10)
	assert.Equal(t, 10, view.Test.MaxScore)
	assert.EqualValues(t, 1, gen.calls.Load())
	assert.Equal(t, "Backend Engineer", gen.lastInput.Role)
	assert.Equal(t, "Acme", gen.lastInput.Company)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes"}, gen.lastInput.Requirements)

	session := view.Session()
	for _, q := range view.Test.Questions {
		answer := "b"
		if q.ID <= 7 {
			answer = "a"
		}
		require.NoError(t, session.RecordAnswer(q.ID, answer))
	}

	result, err := m.SubmitTest(ctx, owner, app.ID, types.TestTypeQuiz, session.Answers())
	require.NoError(t, err)
	assert.Equal(t, 7, result.Score)
	assert.Equal(t, 10, result.MaxScore)
	assert.Equal(t, 70, result.Percentage)
	assert.Equal(t, "Good Job!", result.Grade)
	assert.False(t, result.StatusStale)

	stored, err := s.GetApplication(ctx, owner, app.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusTestTaken, stored.Status)

	_, err = m.SubmitTest(ctx, owner, app.ID, types.TestTypeQuiz, types.Answers{1: "a", 8: "a", 9: "a", 10: "a"})
	assertCode(t, err, errors.ErrCodeAlreadyCompleted)

	review, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
	require.NoError(t, err)
	assert.Equal(t, ModeReview, review.Mode)
	require.NotNil(t, review.Test.Score)
	assert.Equal(t, 7, *review.Test.Score)
	assert.Equal(t, "a", review.Test.Answers[1])
	assert.Equal(t, "b", review.Test.Answers[8])
	assert.EqualValues(t, 1, gen.calls.Load(), "review must not regenerate")

	assert.Equal(t, []string{events.TypeApplicationCreated, events.TypeTestCompleted}, pub.eventTypes())
}

func TestAcquireTestReusesInProgressTest(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{questions: 3}
	m := newManager(newStore(t), gen, nil)
	app := createApplication(t, m)

	first, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeCoding)
	require.NoError(t, err)
	second, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeCoding)
	require.NoError(t, err)

	assert.Equal(t, first.Test.ID, second.Test.ID)
	assert.Equal(t, ModeInProgress, second.Mode)
	assert.EqualValues(t, 1, gen.calls.Load())

	// quiz and coding are independent tests
	quiz, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
	require.NoError(t, err)
	assert.NotEqual(t, first.Test.ID, quiz.Test.ID)
	assert.EqualValues(t, 2, gen.calls.Load())
}

func TestAcquireTestConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	gen := &fakeGenerator{questions: 10, delay: 50 * time.Millisecond}
	m := newManager(s, gen, nil)
	app := createApplication(t, m)

	const callers = 16
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			view, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
			errs[i] = err
			if err == nil {
				ids[i] = view.Test.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	tests, err := s.TestsForApplications(ctx, []string{app.ID})
	require.NoError(t, err)
	assert.Len(t, tests[app.ID], 1)
	assert.EqualValues(t, 1, gen.calls.Load())
}

func TestAcquireTestConflictAcrossManagers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// both generators run before either insert, as two processes would
	release := make(chan struct{})
	genA := &fakeGenerator{questions: 4, title: "A", wait: release}
	genB := &fakeGenerator{questions: 4, title: "B", wait: release}
	mA := newManager(s, genA, nil)
	mB := newManager(s, genB, nil)
	app := createApplication(t, mA)

	var wg sync.WaitGroup
	views := make([]*TestView, 2)
	errs := make([]error, 2)
	for i, m := range []*Manager{mA, mB} {
		wg.Add(1)
		go func(i int, m *Manager) {
			defer wg.Done()
			views[i], errs[i] = m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
		}(i, m)
	}

	require.Eventually(t, func() bool {
		return genA.calls.Load() == 1 && genB.calls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, views[0].Test.ID, views[1].Test.ID)
	assert.Equal(t, views[0].Test.Title, views[1].Test.Title)

	tests, err := s.TestsForApplications(ctx, []string{app.ID})
	require.NoError(t, err)
	assert.Len(t, tests[app.ID], 1)
}

func TestAcquireTestNotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	gen := &fakeGenerator{}
	m := newManager(s, gen, nil)
	app := createApplication(t, m)

	_, err := m.AcquireTest(ctx, "someone-else", app.ID, types.TestTypeQuiz)
	assertCode(t, err, errors.ErrCodeNotFound)

	_, err = m.AcquireTest(ctx, owner, "missing", types.TestTypeQuiz)
	assertCode(t, err, errors.ErrCodeNotFound)

	assert.EqualValues(t, 0, gen.calls.Load())
	_, err = s.GetTest(ctx, app.ID, types.TestTypeQuiz)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAcquireTestRejectsUnknownType(t *testing.T) {
	m := newManager(newStore(t), &fakeGenerator{}, nil)
	_, err := m.AcquireTest(context.Background(), owner, "any", types.TestType("essay"))
	assertCode(t, err, errors.ErrCodeInvalidRequest)
}

func TestAcquireTestGenerationFailures(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "generator error", gen: &fakeGenerator{err: stderrors.New("upstream 500")}},
		{name: "no questions", gen: &fakeGenerator{result: &types.GeneratedTest{Title: "empty"}}},
		{name: "duplicate ids", gen: &fakeGenerator{result: &types.GeneratedTest{
			Questions: []types.Question{
				{ID: 1, Options: []types.Option{{ID: "a"}}, CorrectAnswer: "a"},
				{ID: 1, Options: []types.Option{{ID: "a"}}, CorrectAnswer: "a"},
			},
		}}},
		{name: "quiz question without options", gen: &fakeGenerator{result: &types.GeneratedTest{
			Questions: []types.Question{{ID: 1, Question: "Pick one", CorrectAnswer: "a"}},
		}}},
		{name: "quiz question without correct answer", gen: &fakeGenerator{result: &types.GeneratedTest{
			Questions: []types.Question{{ID: 1, Question: "Pick one", Options: []types.Option{{ID: "a"}, {ID: "b"}}}},
		}}},
		{name: "correct answer not an option", gen: &fakeGenerator{result: &types.GeneratedTest{
			Questions: []types.Question{{ID: 1, Question: "Pick one", Options: []types.Option{{ID: "a"}, {ID: "b"}}, CorrectAnswer: "e"}},
		}}},
		{name: "timeout", gen: &fakeGenerator{wait: make(chan struct{})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			logger := errors.NewLoggerTo(io.Discard, slog.LevelError)
			m := NewManager(s, tt.gen, nil,
				config.LifecycleConfig{GenerateTimeout: 50 * time.Millisecond, StoreTimeout: time.Second}, logger)
			app := createApplication(t, m)

			_, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
			assertCode(t, err, errors.ErrCodeGenerationFailed)

			_, err = s.GetTest(ctx, app.ID, types.TestTypeQuiz)
			assert.ErrorIs(t, err, store.ErrNotFound, "nothing may be persisted")

			// a retry with a healthy generator succeeds
			m.generator = &fakeGenerator{questions: 2}
			view, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
			require.NoError(t, err)
			assert.Equal(t, 2, view.Test.MaxScore)
		})
	}
}

func TestAcquireCodingTestNeedsNoOptions(t *testing.T) {
	gen := &fakeGenerator{result: &types.GeneratedTest{
		Questions: []types.Question{{ID: 1, Title: "Reverse a list"}, {ID: 2, Title: "Parse a log line"}},
	}}
	m := newManager(newStore(t), gen, nil)
	app := createApplication(t, m)

	view, err := m.AcquireTest(context.Background(), owner, app.ID, types.TestTypeCoding)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Test.MaxScore)
}

func TestAcquireTestRateLimitMessage(t *testing.T) {
	limited := errors.NewAIError(errors.ErrCodeAIRateLimited, "quota exhausted", nil)
	m := newManager(newStore(t), &fakeGenerator{err: limited}, nil)
	app := createApplication(t, m)

	_, err := m.AcquireTest(context.Background(), owner, app.ID, types.TestTypeQuiz)
	assertCode(t, err, errors.ErrCodeGenerationFailed)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", errors.UserMessage(err))
}

func TestAcquireTestInsertFailure(t *testing.T) {
	s := newStore(t)
	repo := &failingRepo{Repository: s, insertErr: stderrors.New("disk full")}
	m := newManager(repo, &fakeGenerator{questions: 2}, nil)
	app := createApplication(t, m)

	_, err := m.AcquireTest(context.Background(), owner, app.ID, types.TestTypeQuiz)
	assertCode(t, err, errors.ErrCodePersistenceFailed)
}

func TestRecordAnswer(t *testing.T) {
	ctx := context.Background()
	m := newManager(newStore(t), &fakeGenerator{questions: 3}, nil)
	app := createApplication(t, m)

	view, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
	require.NoError(t, err)
	session := view.Session()

	require.NoError(t, session.RecordAnswer(1, "b"))
	require.NoError(t, session.RecordAnswer(1, "a"))
	assert.Equal(t, types.Answers{1: "a"}, session.Answers())
	assert.True(t, session.Answered(1))
	assert.False(t, session.Answered(2))

	assertCode(t, session.RecordAnswer(99, "a"), errors.ErrCodeInvalidQuestion)

	_, err = m.Submit(ctx, owner, session)
	require.NoError(t, err)

	review, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
	require.NoError(t, err)
	reviewSession := review.Session()
	assert.Equal(t, types.Answers{1: "a"}, reviewSession.Answers())
	assertCode(t, reviewSession.RecordAnswer(2, "a"), errors.ErrCodeAlreadyCompleted)

	_, err = m.Submit(ctx, owner, reviewSession)
	assertCode(t, err, errors.ErrCodeAlreadyCompleted)
}

func TestSubmitTestErrors(t *testing.T) {
	ctx := context.Background()
	m := newManager(newStore(t), &fakeGenerator{questions: 3}, nil)
	app := createApplication(t, m)

	t.Run("no test yet", func(t *testing.T) {
		_, err := m.SubmitTest(ctx, owner, app.ID, types.TestTypeQuiz, types.Answers{1: "a"})
		assertCode(t, err, errors.ErrCodeNotFound)
	})

	_, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
	require.NoError(t, err)

	t.Run("other owner", func(t *testing.T) {
		_, err := m.SubmitTest(ctx, "someone-else", app.ID, types.TestTypeQuiz, types.Answers{1: "a"})
		assertCode(t, err, errors.ErrCodeNotFound)
	})

	t.Run("unknown question", func(t *testing.T) {
		_, err := m.SubmitTest(ctx, owner, app.ID, types.TestTypeQuiz, types.Answers{1: "a", 42: "a"})
		assertCode(t, err, errors.ErrCodeInvalidQuestion)
	})

	t.Run("session submitted by another owner", func(t *testing.T) {
		view, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeQuiz)
		require.NoError(t, err)
		_, err = m.Submit(ctx, "someone-else", view.Session())
		assertCode(t, err, errors.ErrCodeNotFound)
	})
}

func TestSubmitTestStaleStatus(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	repo := &failingRepo{Repository: s}
	pub := &recordingPublisher{err: stderrors.New("broker down")}
	m := newManager(repo, &fakeGenerator{questions: 2}, pub)
	app := createApplication(t, m)

	_, err := m.AcquireTest(ctx, owner, app.ID, types.TestTypeCoding)
	require.NoError(t, err)

	repo.statusErr = stderrors.New("connection reset")
	result, err := m.SubmitTest(ctx, owner, app.ID, types.TestTypeCoding, types.Answers{1: "code"})
	require.NoError(t, err)
	assert.True(t, result.StatusStale)
	assert.Equal(t, 1, result.Score)

	test, err := s.GetTest(ctx, app.ID, types.TestTypeCoding)
	require.NoError(t, err)
	assert.True(t, test.Completed())

	stored, err := s.GetApplication(ctx, owner, app.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, stored.Status)
}

func TestScore(t *testing.T) {
	quiz := &types.Test{TestType: types.TestTypeQuiz}
	for i := 1; i <= 5; i++ {
		quiz.Questions = append(quiz.Questions, types.Question{ID: i, CorrectAnswer: "c"})
	}

	for m := 0; m <= len(quiz.Questions); m++ {
		t.Run(fmt.Sprintf("quiz %d correct", m), func(t *testing.T) {
			answers := types.Answers{}
			for id := 1; id <= len(quiz.Questions); id++ {
				if id <= m {
					answers[id] = "c"
				} else {
					answers[id] = "C"
				}
			}
			assert.Equal(t, m, Score(quiz, answers))
		})
	}

	coding := &types.Test{TestType: types.TestTypeCoding, Questions: quiz.Questions[:3]}
	tests := []struct {
		name    string
		answers types.Answers
		want    int
	}{
		{name: "none", answers: types.Answers{}, want: 0},
		{name: "one", answers: types.Answers{2: "anything"}, want: 1},
		{name: "content ignored", answers: types.Answers{1: "", 2: "x", 3: "return 42"}, want: 3},
	}
	for _, tt := range tests {
		t.Run("coding "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(coding, tt.answers))
		})
	}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score, max int
		want       string
	}{
		{8, 10, "Excellent!"},
		{10, 10, "Excellent!"},
		{7, 10, "Good Job!"},
		{5, 10, "Keep Practicing"},
		{2, 3, "Keep Practicing"},
		{4, 10, "Needs Improvement"},
		{0, 0, "Needs Improvement"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.score, tt.max), func(t *testing.T) {
			assert.Equal(t, tt.want, Grade(tt.score, tt.max))
		})
	}
}

func TestListApplications(t *testing.T) {
	ctx := context.Background()
	m := newManager(newStore(t), &fakeGenerator{questions: 2}, nil)

	first := createApplication(t, m)
	second, err := m.CreateApplication(ctx, owner, NewApplication{CompanyName: "Globex", RoleTitle: "SRE"})
	require.NoError(t, err)
	_, err = m.CreateApplication(ctx, "someone-else", NewApplication{CompanyName: "Initech", RoleTitle: "QA"})
	require.NoError(t, err)

	_, err = m.AcquireTest(ctx, owner, first.ID, types.TestTypeQuiz)
	require.NoError(t, err)

	views, err := m.ListApplications(ctx, owner)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, second.ID, views[0].ID)
	assert.Empty(t, views[0].Tests)
	assert.Equal(t, first.ID, views[1].ID)
	require.Len(t, views[1].Tests, 1)
	assert.Equal(t, types.TestTypeQuiz, views[1].Tests[0].TestType)
}

func TestCreateApplicationValidation(t *testing.T) {
	m := newManager(newStore(t), &fakeGenerator{}, nil)
	_, err := m.CreateApplication(context.Background(), owner, NewApplication{CompanyName: "Acme", RoleTitle: "  "})
	assertCode(t, err, errors.ErrCodeInvalidRequest)
}

func TestCreateApplicationResumeReference(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	m := newManager(s, &fakeGenerator{}, nil)

	mine := &types.Resume{ID: "r-mine", UserID: owner, FileName: "cv.pdf", CreatedAt: time.Now()}
	other := &types.Resume{ID: "r-other", UserID: "user-2", FileName: "cv.pdf", CreatedAt: time.Now()}
	require.NoError(t, s.CreateResume(ctx, mine))
	require.NoError(t, s.CreateResume(ctx, other))

	ref := func(id string) *string { return &id }
	tests := []struct {
		name     string
		resumeID *string
		wantErr  string
		wantRef  *string
	}{
		{name: "own resume", resumeID: ref("r-mine"), wantRef: ref("r-mine")},
		{name: "no resume", resumeID: nil},
		{name: "blank resume id", resumeID: ref("  ")},
		{name: "another user's resume", resumeID: ref("r-other"), wantErr: errors.ErrCodeNotFound},
		{name: "unknown resume", resumeID: ref("does-not-exist"), wantErr: errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := m.CreateApplication(ctx, owner, NewApplication{
				CompanyName: "Acme", RoleTitle: "SRE", ResumeID: tt.resumeID,
			})
			if tt.wantErr != "" {
				assertCode(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "resume not found")
				assert.Nil(t, app)
				return
			}
			require.NoError(t, err)
			stored, err := s.GetApplication(ctx, owner, app.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRef, stored.ResumeID)
		})
	}

	views, err := m.ListApplications(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, views, 3)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	pub := &recordingPublisher{}
	m := newManager(s, &fakeGenerator{}, pub)
	app := createApplication(t, m)

	assertCode(t, m.UpdateStatus(ctx, owner, app.ID, types.StatusTestTaken), errors.ErrCodeInvalidStatus)
	assertCode(t, m.UpdateStatus(ctx, owner, app.ID, "hired"), errors.ErrCodeInvalidStatus)
	assertCode(t, m.UpdateStatus(ctx, "someone-else", app.ID, types.StatusAccepted), errors.ErrCodeNotFound)

	require.NoError(t, m.UpdateStatus(ctx, owner, app.ID, types.StatusAccepted))
	stored, err := s.GetApplication(ctx, owner, app.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, stored.Status)
	assert.Equal(t, []string{events.TypeApplicationCreated, events.TypeStatusChanged}, pub.eventTypes())
}
