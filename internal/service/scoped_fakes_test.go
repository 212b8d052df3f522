package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
)

// scopeTable answers scope existence checks from a fixed table of visible ids.
type scopeTable struct {
	visible map[models.EntityType]map[string]bool
	checks  []repository.Predicate
}

func newScopeTable() *scopeTable {
	return &scopeTable{visible: map[models.EntityType]map[string]bool{}}
}

func (s *scopeTable) allow(entity models.EntityType, ids ...string) *scopeTable {
	if s.visible[entity] == nil {
		s.visible[entity] = map[string]bool{}
	}
	for _, id := range ids {
		s.visible[entity][id] = true
	}
	return s
}

func (s *scopeTable) Exists(ctx context.Context, entity models.EntityType, pred repository.Predicate, id string) (bool, error) {
	s.checks = append(s.checks, pred)
	return s.visible[entity][id], nil
}

func newScopedVisibility(table *scopeTable) *VisibilityService {
	cacheSvc := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	return NewVisibilityService(&profileRefStub{}, table, cacheSvc, time.Minute, NewMetricsService(), nil)
}

type classRepoStub struct {
	classes  []models.Class
	total    int
	err      error
	lastPred repository.Predicate
}

func (r *classRepoStub) List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Class, int, error) {
	r.lastPred = pred
	return r.classes, r.total, r.err
}

func (r *classRepoStub) Get(ctx context.Context, pred repository.Predicate, id string) (*models.Class, error) {
	r.lastPred = pred
	for i := range r.classes {
		if r.classes[i].ID == id {
			return &r.classes[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type lessonRepoStub struct {
	lessons  map[string]*models.Lesson
	created  []*models.Lesson
	updated  []*models.Lesson
	lastPred repository.Predicate
}

func newLessonRepoStub(lessons ...models.Lesson) *lessonRepoStub {
	r := &lessonRepoStub{lessons: map[string]*models.Lesson{}}
	for i := range lessons {
		l := lessons[i]
		r.lessons[l.ID] = &l
	}
	return r
}

func (r *lessonRepoStub) List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Lesson, int, error) {
	r.lastPred = pred
	out := make([]models.Lesson, 0, len(r.lessons))
	for _, l := range r.lessons {
		out = append(out, *l)
	}
	return out, len(out), nil
}

func (r *lessonRepoStub) Get(ctx context.Context, pred repository.Predicate, id string) (*models.Lesson, error) {
	r.lastPred = pred
	l, ok := r.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (r *lessonRepoStub) Create(ctx context.Context, lesson *models.Lesson) error {
	lesson.ID = "lesson-new"
	r.created = append(r.created, lesson)
	return nil
}

func (r *lessonRepoStub) Update(ctx context.Context, lesson *models.Lesson) error {
	r.updated = append(r.updated, lesson)
	return nil
}

type assessmentRepoStub struct {
	assessments map[string]models.Assessment
	attempts    int
	maxAttempts int
	created     []*models.Assessment
	submissions []*models.AssessmentSubmission
	graded      map[string]float64
	lastPred    repository.Predicate
}

func newAssessmentRepoStub(items ...models.Assessment) *assessmentRepoStub {
	r := &assessmentRepoStub{assessments: map[string]models.Assessment{}, graded: map[string]float64{}}
	for _, a := range items {
		r.assessments[a.ID] = a
	}
	return r
}

func (r *assessmentRepoStub) List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Assessment, int, error) {
	r.lastPred = pred
	return nil, 0, nil
}

func (r *assessmentRepoStub) Get(ctx context.Context, pred repository.Predicate, id string) (*models.Assessment, error) {
	r.lastPred = pred
	a, ok := r.assessments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (r *assessmentRepoStub) Create(ctx context.Context, item *models.Assessment) error {
	item.ID = "assessment-new"
	r.created = append(r.created, item)
	return nil
}

func (r *assessmentRepoStub) ListSubmissions(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.AssessmentSubmission, int, error) {
	r.lastPred = pred
	return nil, 0, nil
}

func (r *assessmentRepoStub) CreateSubmission(ctx context.Context, sub *models.AssessmentSubmission, maxAttempts int) error {
	r.maxAttempts = maxAttempts
	if maxAttempts > 0 && r.attempts >= maxAttempts {
		return repository.ErrAttemptsExhausted
	}
	sub.ID = "sub-new"
	r.submissions = append(r.submissions, sub)
	return nil
}

func (r *assessmentRepoStub) GetSubmission(ctx context.Context, pred repository.Predicate, id string) (*models.AssessmentSubmission, error) {
	score, ok := r.graded[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.AssessmentSubmission{ID: id, Score: &score}, nil
}

func (r *assessmentRepoStub) GradeSubmission(ctx context.Context, id string, score float64, feedback *string, gradedAt time.Time) error {
	r.graded[id] = score
	return nil
}

type attendanceRepoStub struct {
	rows     []models.Attendance
	upserted []models.Attendance
	lastPred repository.Predicate
}

func (r *attendanceRepoStub) List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Attendance, int, error) {
	r.lastPred = pred
	return r.rows, len(r.rows), nil
}

func (r *attendanceRepoStub) Export(ctx context.Context, pred repository.Predicate) ([]models.Attendance, error) {
	r.lastPred = pred
	return r.rows, nil
}

func (r *attendanceRepoStub) Upsert(ctx context.Context, records []models.Attendance) error {
	r.upserted = append(r.upserted, records...)
	return nil
}

type notificationRepoStub struct {
	owned    map[string]bool
	read     []string
	messages []*models.Message
	notified []*models.Notification
	lastPred repository.Predicate
}

func (r *notificationRepoStub) List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Notification, int, error) {
	r.lastPred = pred
	return nil, 0, nil
}

func (r *notificationRepoStub) MarkRead(ctx context.Context, pred repository.Predicate, id string) error {
	r.lastPred = pred
	if !r.owned[id] {
		return sql.ErrNoRows
	}
	r.read = append(r.read, id)
	return nil
}

func (r *notificationRepoStub) ListMessages(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Message, int, error) {
	r.lastPred = pred
	return nil, 0, nil
}

func (r *notificationRepoStub) CreateMessage(ctx context.Context, msg *models.Message) error {
	msg.ID = "msg-new"
	r.messages = append(r.messages, msg)
	return nil
}

func (r *notificationRepoStub) CreateNotification(ctx context.Context, n *models.Notification) error {
	r.notified = append(r.notified, n)
	return nil
}
