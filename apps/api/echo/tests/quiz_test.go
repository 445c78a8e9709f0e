package tests

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/enghaven/portal/apps/api/echo"
	"github.com/enghaven/portal/core/quiz"
	"github.com/enghaven/portal/core/user"
)

const capitalsJSON = `[
	{"prompt": "Capital of France?", "answer": "Paris", "options": ["Paris", "Lyon"]},
	{"prompt": "Capital of Spain?", "answer": "Madrid"}
]`

func createQuiz(t *testing.T, app *testApp, adminCookie *http.Cookie, form map[string][]string) quiz.Quiz {
	rec := app.do(newFormRequest(http.MethodPost, "/admin/quiz/new", adminCookie, form))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var qz quiz.Quiz
	unmarshal(t, rec, &qz)
	return qz
}

func Test_quizApi(t *testing.T) {
	app := setup(t)
	_, adminCookie := app.createUser(t, "Admin", "admin@test.pk", "pwd", user.RoleAdmin)
	_, cookie := app.createUser(t, "Sara", "sara@test.pk", "pwd", user.RoleStudent)
	batch := app.createBatch(t, "Morning", "09:00-11:00")

	qz := createQuiz(t, app, adminCookie, map[string][]string{
		"batchId":   {batch.ID},
		"title":     {"Capitals"},
		"timeLimit": {"300"},
		"maxTries":  {""},
		"questions": {capitalsJSON},
	})
	assert.Equal(t, 300, qz.TimeLimit)
	assert.Equal(t, quiz.DefaultMaxTries, qz.MaxTries)
	require.Len(t, qz.Questions, 2)

	t.Run("take", func(t *testing.T) {
		tt := httpTest{
			path: "/quiz/" + qz.ID, cookie: cookie, wantCode: http.StatusOK,
			wantData: marchallObj(t, QuizResponse{Quiz: qz.Public(), Attempts: 0}),
		}
		checkCodeAndData(t, tt, app.run(t, tt))
		assert.NotContains(t, app.run(t, tt).Body.String(), "Madrid", "answers are hidden")
	})

	t.Run("unknown quiz", func(t *testing.T) {
		notFound := marchallObj(t, httpErr{Error: "Quiz not found"})
		for _, tt := range []httpTest{
			{path: "/quiz/nope", cookie: cookie, wantCode: http.StatusNotFound, wantData: notFound},
			{method: http.MethodPost, path: "/quiz/nope/submit", cookie: cookie, body: []byte(`{}`), wantCode: http.StatusNotFound, wantData: notFound},
		} {
			checkCodeAndData(t, tt, app.run(t, tt))
		}
	})

	t.Run("forfeit", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/quiz/" + qz.ID + "/forfeit", cookie: cookie,
			wantCode: http.StatusOK, wantData: marchallObj(t, echo.Map{"ok": true}),
		}
		checkCodeAndData(t, tt, app.run(t, tt))
	})

	t.Run("submit json", func(t *testing.T) {
		body := []byte(`{"q0": "  paris ", "q1": "Rome", "q7": 42}`)
		rec := app.do(newRequest(http.MethodPost, "/quiz/"+qz.ID+"/submit", cookie, body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp SubmitResponse
		unmarshal(t, rec, &resp)
		assert.Equal(t, 1, resp.Score)
		assert.Equal(t, 2, resp.Total)
		assert.Equal(t, "/portal", resp.Next)
		assert.Equal(t, qz.ID, resp.Result.QuizID)
	})

	t.Run("submit form", func(t *testing.T) {
		form := map[string][]string{"q0": {"Paris"}, "q1": {"MADRID"}}
		rec := app.do(newFormRequest(http.MethodPost, "/quiz/"+qz.ID+"/submit", cookie, form))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp SubmitResponse
		unmarshal(t, rec, &resp)
		assert.Equal(t, 2, resp.Score)
	})

	t.Run("empty submission", func(t *testing.T) {
		rec := app.do(newRequest(http.MethodPost, "/quiz/"+qz.ID+"/submit", cookie, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp SubmitResponse
		unmarshal(t, rec, &resp)
		assert.Equal(t, 0, resp.Score)
	})

	t.Run("attempts are not limited", func(t *testing.T) {
		for i := 0; i < qz.MaxTries; i++ {
			rec := app.do(newRequest(http.MethodPost, "/quiz/"+qz.ID+"/submit", cookie, []byte(`{}`)))
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := app.do(newRequest(http.MethodGet, "/portal", cookie, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp PortalResponse
		unmarshal(t, rec, &resp)
		assert.False(t, resp.Enrolled, "quizzes are listed for enrolled students only")

		rec = app.do(newRequest(http.MethodGet, "/quiz/"+qz.ID, cookie, nil))
		var qResp QuizResponse
		unmarshal(t, rec, &qResp)
		assert.Equal(t, 3+qz.MaxTries, qResp.Attempts)
	})
}

func Test_enrollmentApi_portal_quizzes(t *testing.T) {
	app := setup(t)
	_, adminCookie := app.createUser(t, "Admin", "admin@test.pk", "pwd", user.RoleAdmin)
	_, cookie := app.createUser(t, "Sara", "sara@test.pk", "pwd", user.RoleStudent)
	morning := app.createBatch(t, "Morning", "09:00-11:00")
	evening := app.createBatch(t, "Evening", "18:00-20:00")

	mine := createQuiz(t, app, adminCookie, map[string][]string{"batchId": {morning.ID}, "title": {"Mine"}, "questions": {capitalsJSON}})
	createQuiz(t, app, adminCookie, map[string][]string{"batchId": {evening.ID}, "title": {"Theirs"}})

	fields := map[string]string{"batchId": morning.ID, "timing": "09:00", "method": "bank"}
	rec := app.do(newMultipartRequest(t, "/enroll", cookie, fields, "", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = app.do(newRequest(http.MethodPost, "/quiz/"+mine.ID+"/submit", cookie, []byte(`{"q0": "Paris"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(newRequest(http.MethodGet, "/portal", cookie, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp PortalResponse
	unmarshal(t, rec, &resp)
	require.Len(t, resp.Quizzes, 1)
	assert.Equal(t, mine.ID, resp.Quizzes[0].ID)
	assert.Equal(t, 1, resp.Quizzes[0].Attempts)
	assert.Equal(t, "Capital of France?", resp.Quizzes[0].Questions[0].Prompt)
}
