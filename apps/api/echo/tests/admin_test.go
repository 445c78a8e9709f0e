package tests

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/enghaven/portal/apps/api/echo"
	"github.com/enghaven/portal/core/enrollment"
	"github.com/enghaven/portal/core/quiz"
	"github.com/enghaven/portal/core/user"
)

func Test_adminApi_dashboard(t *testing.T) {
	app := setup(t)
	admin, adminCookie := app.createUser(t, "Admin", "admin@test.pk", "pwd", user.RoleAdmin)
	student, cookie := app.createUser(t, "Sara", "sara@test.pk", "pwd", user.RoleStudent)
	batch := app.createBatch(t, "Morning", "09:00-11:00")

	tt := httpTest{
		path: "/admin", cookie: adminCookie, wantCode: http.StatusOK,
		wantData: marchallObj(t, DashboardResponse{
			Users:       []user.Profile{admin.Profile(), student.Profile()},
			Enrollments: []AdminEnrollment{},
			Batches:     []enrollment.Batch{batch},
			Quizzes:     []quiz.Quiz{},
			Results:     []quiz.Result{},
		}),
	}
	checkCodeAndData(t, tt, app.run(t, tt))
	assert.NotContains(t, app.run(t, tt).Body.String(), "passwordHash")

	fields := map[string]string{"batchId": batch.ID, "timing": "09:00", "method": "bank"}
	rec := app.do(newMultipartRequest(t, "/enroll", cookie, fields, "", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.run(t, tt)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp DashboardResponse
	unmarshal(t, rec, &resp)
	require.Len(t, resp.Enrollments, 1)
	assert.Equal(t, student.ID, resp.Enrollments[0].UserID)
	assert.Equal(t, enrollment.StatusPaid, resp.Enrollments[0].PaymentStatus)
}

func Test_adminApi_createBatch(t *testing.T) {
	app := setup(t)
	_, adminCookie := app.createUser(t, "Admin", "admin@test.pk", "pwd", user.RoleAdmin)

	required := "this field is required"
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"timeSlot": required}),
	}, app.do(newFormRequest(http.MethodPost, "/admin/batch/new", adminCookie, map[string][]string{"name": {"Morning"}})))

	body := marchallObj(t, enrollment.NewBatch{Name: " Morning ", TimeSlot: "09:00-11:00"})
	rec := app.do(newRequest(http.MethodPost, "/admin/batch/new", adminCookie, body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var batch enrollment.Batch
	unmarshal(t, rec, &batch)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, "Morning", batch.Name)

	batches, err := app.enrollmentSvc.ListBatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []enrollment.Batch{batch}, batches)
}

func Test_adminApi_createQuiz(t *testing.T) {
	t.Run("lenient", func(t *testing.T) {
		app := setup(t)
		_, adminCookie := app.createUser(t, "Admin", "admin@test.pk", "pwd", user.RoleAdmin)

		qz := createQuiz(t, app, adminCookie, map[string][]string{
			"batchId":   {"b1"},
			"title":     {"Broken"},
			"timeLimit": {"1.5"},
			"maxTries":  {"5"},
			"questions": {"[{not json"},
		})
		assert.Empty(t, qz.Questions)
		assert.Equal(t, quiz.DefaultTimeLimit, qz.TimeLimit)
		assert.Equal(t, 5, qz.MaxTries)
	})

	t.Run("strict", func(t *testing.T) {
		app := setup(t, func(opts *Options) {
			opts.QuizSvc = quiz.NewService(fakeQuizRepo{}, fakeResultRepo{}, quiz.Strict, opts.Logger)
		})
		_, adminCookie := app.createUser(t, "Admin", "admin@test.pk", "pwd", user.RoleAdmin)

		form := map[string][]string{"batchId": {"b1"}, "title": {"Broken"}, "questions": {"[{not json"}}
		rec := app.do(newFormRequest(http.MethodPost, "/admin/quiz/new", adminCookie, form))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var fields map[string]string
		unmarshal(t, rec, &fields)
		assert.True(t, strings.HasPrefix(fields["questions"], "invalid questions"), fields["questions"])
	})
}

// the strict quiz service never reaches its repositories
type fakeQuizRepo struct{}

func (fakeQuizRepo) ListAll(context.Context) ([]quiz.Quiz, error) { return nil, nil }
func (fakeQuizRepo) Update(context.Context, func([]quiz.Quiz) ([]quiz.Quiz, error)) error {
	return errors.New("unexpected update")
}

type fakeResultRepo struct{}

func (fakeResultRepo) ListAll(context.Context) ([]quiz.Result, error) { return nil, nil }
func (fakeResultRepo) Update(context.Context, func([]quiz.Result) ([]quiz.Result, error)) error {
	return errors.New("unexpected update")
}
