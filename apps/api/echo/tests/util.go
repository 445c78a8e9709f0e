package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	. "github.com/enghaven/portal/apps/api/echo"
	"github.com/enghaven/portal/core"
	"github.com/enghaven/portal/core/attendance"
	"github.com/enghaven/portal/core/enrollment"
	"github.com/enghaven/portal/core/quiz"
	"github.com/enghaven/portal/core/user"
	"github.com/enghaven/portal/services/email"
	"github.com/enghaven/portal/services/metrics"
	"github.com/enghaven/portal/storage/blob"
	"github.com/enghaven/portal/storage/database"
	"github.com/enghaven/portal/tests"
)

const cookieName = "enghaven_session"

var (
	errAuthRequired     = httpErr{Error: "authentication required"}
	errPermissionDenied = httpErr{Error: "permission denied"}
)

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	cookie   *http.Cookie
	wantCode int
	wantData []byte
}

// testApp is a Server wired on an in-memory store and a temporary blob directory.
type testApp struct {
	srv           *Server
	usrRepo       user.Repository
	mailSvc       *emailsvc.ConsoleServiceMock
	blobDir       string
	enrollmentSvc *enrollment.Service
	quizSvc       *quiz.Service
}

func testConfig() *core.Config {
	return &core.Config{
		Env:     "TEST",
		AppName: "English Haven",
		Server:  core.ServerConfig{DisableReqLogs: true},
		Session: core.SessionConfig{
			Secret:     "test-secret",
			CookieName: cookieName,
			MaxAge:     time.Hour,
		},
	}
}

func setup(t *testing.T, configure ...func(*Options)) *testApp {
	db := testutil.PrepareDB(t)
	logger := testutil.NewLogger()
	validate := core.NewValidator()

	app := &testApp{
		usrRepo: database.NewUserRepository(db),
		mailSvc: emailsvc.NewConsoleServiceMock(),
		blobDir: t.TempDir(),
	}
	blobs, err := blob.NewLocalStore(app.blobDir)
	require.NoError(t, err)

	app.enrollmentSvc = enrollment.NewService(
		database.NewEnrollmentRepository(db),
		database.NewBatchRepository(db),
		blobs,
		app.mailSvc,
		logger,
		validate,
	)
	app.quizSvc = quiz.NewService(database.NewQuizRepository(db), database.NewResultRepository(db), quiz.Lenient, logger)

	opts := &Options{
		Conf:          testConfig(),
		Logger:        logger,
		Validator:     validate,
		Metrics:       metrics.New(),
		Store:         db,
		UserSvc:       user.NewService(app.usrRepo, validate),
		EnrollmentSvc: app.enrollmentSvc,
		AttendanceSvc: attendance.NewService(database.NewAttendanceRepository(db)),
		QuizSvc:       app.quizSvc,
	}
	for _, fn := range configure {
		fn(opts)
	}
	app.srv = NewServer(opts)
	return app
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req := newRequest(method, tt.path, tt.cookie, tt.body)
	return app.do(req)
}

// login opens a session for the credentials and returns its cookie.
func (app *testApp) login(t *testing.T, email, pwd string) *http.Cookie {
	body := marchallObj(t, LoginRequest{Email: email, Password: pwd})
	rec := app.do(newRequest(http.MethodPost, "/login", nil, body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func (app *testApp) createUser(t *testing.T, name, email, pwd, role string) (user.User, *http.Cookie) {
	usr := testutil.CreateUser(t, app.usrRepo, name, email, pwd, role)
	return usr, app.login(t, email, pwd)
}

func (app *testApp) createBatch(t *testing.T, name, slot string) enrollment.Batch {
	b, err := app.enrollmentSvc.CreateBatch(context.Background(), enrollment.NewBatch{Name: name, TimeSlot: slot})
	require.NoError(t, err)
	return b
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("sessionCookie(): no %q cookie in response", cookieName)
	return nil
}

func newRequest(method, path string, cookie *http.Cookie, data []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func newFormRequest(method, path string, cookie *http.Cookie, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// newMultipartRequest sends fields and, if filename is not empty, a "proof" file.
func newMultipartRequest(t *testing.T, path string, cookie *http.Cookie, fields map[string]string, filename string, content []byte) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("proof", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
