package submit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabaqlab/sabaq/internal/api"
	"github.com/sabaqlab/sabaq/internal/assessment"
	"github.com/sabaqlab/sabaq/internal/store"
)

// memBackups is an in-memory BackupRepo that records the order of
// operations relative to transport calls.
type memBackups struct {
	mu        sync.Mutex
	data      map[string]store.Backup
	saveErr   error
	deleteErr error
	saves     int
}

func newMemBackups() *memBackups {
	return &memBackups{data: make(map[string]store.Backup)}
}

func (m *memBackups) Save(_ context.Context, b *store.Backup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data[b.AssessmentID] = *b
	return nil
}

func (m *memBackups) Load(_ context.Context, id string) (*store.Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memBackups) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.data, id)
	return nil
}

func (m *memBackups) List(context.Context) ([]*store.Backup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Backup
	for _, b := range m.data {
		out = append(out, &b)
	}
	return out, nil
}

func (m *memBackups) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[id]
	return ok
}

// backupCheckingTransport asserts a backup exists whenever it is called.
type backupCheckingTransport struct {
	*MockTransport
	backups *memBackups
	t       *testing.T
}

func (b backupCheckingTransport) Submit(ctx context.Context, rec *Record) (*assessment.Result, error) {
	assert.True(b.t, b.backups.has(rec.AssessmentID), "backup must exist before the network call")
	return b.MockTransport.Submit(ctx, rec)
}

func record() Record {
	return Record{
		AssessmentID: "t1",
		GroupID:      "g1",
		Answers: []assessment.Answer{
			{QuestionID: "q1", OptionID: "a"},
			{QuestionID: "q2", OptionID: "c"},
		},
		TimeSpent: 90,
	}
}

func TestFormatAnswers(t *testing.T) {
	got := FormatAnswers([]assessment.Answer{
		{QuestionID: " q1 ", OptionID: "a"},
		{QuestionID: "q2", OptionID: ""},
		{QuestionID: "q3", OptionID: "x"},
		{QuestionID: "q1", OptionID: "b"},
	})
	assert.Equal(t, []assessment.Answer{
		{QuestionID: "q1", OptionID: "b"},
		{QuestionID: "q3", OptionID: "x"},
	}, got)

	assert.Empty(t, FormatAnswers(nil))
	assert.NotNil(t, FormatAnswers(nil))
}

func TestPipeline_FailsTwiceThenSucceeds(t *testing.T) {
	backups := newMemBackups()
	mock := NewMockTransport("primary",
		MockResponse{Err: unavailable()},
		MockResponse{Err: unavailable()},
		MockResponse{Result: &assessment.Result{Score: 3, TotalPoints: 4, TimeSpent: 90}},
	)
	primary := WithRetry(backupCheckingTransport{MockTransport: mock, backups: backups, t: t}, retryConfig())
	p := NewPipeline(backups, primary)

	res, err := p.Submit(context.Background(), record())
	require.NoError(t, err)
	assert.Equal(t, &assessment.Result{Score: 3, TotalPoints: 4, TimeSpent: 90}, res)
	assert.Equal(t, 3, mock.CallCount())
	assert.False(t, backups.has("t1"), "backup cleared after success")

	require.Len(t, mock.Calls, 3)
	assert.NotEmpty(t, mock.Calls[0].AttemptID)
	assert.Equal(t, mock.Calls[0].AttemptID, mock.Calls[2].AttemptID)
}

func TestPipeline_AllFailKeepsBackupThenResubmit(t *testing.T) {
	backups := newMemBackups()
	primary := NewMockTransport("primary",
		MockResponse{Err: unavailable()},
		MockResponse{Err: unavailable()},
		MockResponse{Err: unavailable()},
	)
	legacy := NewMockTransport("legacy",
		MockResponse{Err: unavailable()},
	)
	p := NewPipeline(backups, WithRetry(primary, retryConfig()), WithRetry(legacy, RetryConfig{MaxAttempts: 1}))

	_, err := p.Submit(context.Background(), record())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubmissionFailed)

	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.BackupSaved)
	assert.Contains(t, se.UserMessage(), "saved locally")
	assert.Equal(t, 503, api.StatusCode(err))

	assert.Equal(t, 3, primary.CallCount())
	assert.Equal(t, 1, legacy.CallCount())
	assert.True(t, backups.has("t1"), "backup kept after failure")

	b, _ := backups.Load(context.Background(), "t1")
	assert.Equal(t, "g1", b.GroupID)
	assert.Equal(t, 90, b.TimeSpent)
	assert.Len(t, b.Answers, 2)

	// Service recovers; a manual retry submits the same answers.
	primary.AddResponse(MockResponse{Result: &assessment.Result{Score: 2, TotalPoints: 2}})
	res, err := p.Resubmit(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)
	assert.False(t, backups.has("t1"))

	last := primary.Calls[len(primary.Calls)-1]
	assert.Equal(t, record().Answers, last.Answers)
	assert.Equal(t, 90, last.TimeSpent)
}

func TestPipeline_ClientErrorFallsThroughToLegacy(t *testing.T) {
	backups := newMemBackups()
	primary := NewMockTransport("primary",
		MockResponse{Err: &api.StatusError{Code: 404, Message: "Not Found"}},
	)
	legacy := NewMockTransport("legacy",
		MockResponse{Result: &assessment.Result{Score: 1, TotalPoints: 1}},
	)
	p := NewPipeline(backups, WithRetry(primary, retryConfig()), WithRetry(legacy, RetryConfig{MaxAttempts: 1}))

	res, err := p.Submit(context.Background(), record())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 1, primary.CallCount())
	assert.Equal(t, 1, legacy.CallCount())
	assert.False(t, backups.has("t1"))
}

func TestPipeline_ContextCanceledKeepsBackup(t *testing.T) {
	backups := newMemBackups()
	primary := NewMockTransport("primary")
	legacy := NewMockTransport("legacy")
	p := NewPipeline(backups, primary, legacy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	primary.AddResponse(MockResponse{Err: context.Canceled})

	_, err := p.Submit(ctx, record())
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Equal(t, 0, legacy.CallCount(), "no fallback after cancellation")
	assert.True(t, backups.has("t1"))
}

func TestPipeline_BackupWriteFailureStillSubmits(t *testing.T) {
	backups := newMemBackups()
	backups.saveErr = errors.New("disk full")
	mock := NewMockTransport("primary", MockResponse{Result: &assessment.Result{Score: 1}})
	p := NewPipeline(backups, mock)

	res, err := p.Submit(context.Background(), record())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 1, mock.CallCount())
}

func TestPipeline_BackupWriteFailureMessage(t *testing.T) {
	backups := newMemBackups()
	backups.saveErr = errors.New("disk full")
	p := NewPipeline(backups, NewMockTransport("primary", MockResponse{Err: unavailable()}))

	_, err := p.Submit(context.Background(), record())
	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.False(t, se.BackupSaved)
	assert.NotContains(t, se.UserMessage(), "saved locally")
}

func TestPipeline_BackupDeleteFailureStillSucceeds(t *testing.T) {
	backups := newMemBackups()
	backups.deleteErr = errors.New("locked")
	p := NewPipeline(backups, NewMockTransport("primary", MockResponse{Result: &assessment.Result{Score: 5}}))

	res, err := p.Submit(context.Background(), record())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Score)
}

func TestPipeline_ResubmitWithoutBackup(t *testing.T) {
	p := NewPipeline(newMemBackups(), NewMockTransport("primary"))
	_, err := p.Resubmit(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoBackup)
}

func TestPipeline_NoStrategies(t *testing.T) {
	backups := newMemBackups()
	_, err := NewPipeline(backups).Submit(context.Background(), record())
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.True(t, backups.has("t1"))
}

type fakeClient struct {
	primary, legacy *MockTransport
}

func (f fakeClient) SubmitAnswers(ctx context.Context, groupID, assessmentID string, answers []assessment.Answer, timeSpent int) (*assessment.Result, error) {
	return f.primary.Submit(ctx, &Record{GroupID: groupID, AssessmentID: assessmentID, Answers: answers, TimeSpent: timeSpent})
}

func (f fakeClient) SubmitLegacy(ctx context.Context, assessmentID string, answers []assessment.Answer, timeSpent int) (*assessment.Result, error) {
	return f.legacy.Submit(ctx, &Record{AssessmentID: assessmentID, Answers: answers, TimeSpent: timeSpent})
}

func TestStrategies_RecordEventsToStore(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	c := fakeClient{
		primary: NewMockTransport("primary",
			MockResponse{Err: unavailable()},
			MockResponse{Err: unavailable()},
			MockResponse{Err: unavailable()},
		),
		legacy: NewMockTransport("legacy",
			MockResponse{Result: &assessment.Result{Score: 1}},
		),
	}

	p := NewPipeline(s.BackupRepo(), Strategies(c, retryConfig(), 1, s.EventRepo())...)
	_, err = p.Submit(context.Background(), record())
	require.NoError(t, err)

	events, err := s.EventRepo().SubmitAttempts(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, events, 4)
	for _, e := range events[:3] {
		assert.Equal(t, "primary", e.Transport)
		assert.False(t, e.Success)
		assert.Equal(t, 503, e.StatusCode)
	}
	assert.Equal(t, "legacy", events[3].Transport)
	assert.True(t, events[3].Success)
	assert.Equal(t, events[0].AttemptID, events[3].AttemptID)

	b, err := s.BackupRepo().Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, b)
}
