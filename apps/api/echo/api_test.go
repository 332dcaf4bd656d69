package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elimuhq/elimu/apps/api/echo"
	"github.com/elimuhq/elimu/core"
	"github.com/elimuhq/elimu/core/course"
	"github.com/elimuhq/elimu/core/user"
	"github.com/elimuhq/elimu/services/email"
	"github.com/elimuhq/elimu/storage/database/inmem"
	"github.com/elimuhq/elimu/tests"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Fatal(string, ...interface{}) {}

type testDeps struct {
	conf       *core.Config
	db         *inmemdb.DB
	usrRepo    user.Repository
	otpRepo    user.OTPRepository
	courseRepo testutil.CourseSeeder
}

func setup(t *testing.T) (echoapi.Server, *testDeps) {
	t.Helper()

	conf := core.NewTestConfig()
	db := inmemdb.New()
	deps := &testDeps{
		conf:       conf,
		db:         db,
		usrRepo:    inmemdb.NewUserRepository(db),
		otpRepo:    inmemdb.NewOTPRepository(db),
		courseRepo: inmemdb.NewCourseRepository(db),
	}
	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	app := echoapi.NewServer(&echoapi.Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         noopLogger{},
		UserSvc:        user.NewService(deps.usrRepo, deps.otpRepo, mailSvc, conf),
		CourseSvc:      course.NewService(deps.courseRepo),
	})
	return app, deps
}

// envelope mirrors the uniform response body.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
	OTP     string            `json:"otp"`
	Token   string            `json:"token"`
	User    json.RawMessage   `json:"user"`
	Data    json.RawMessage   `json:"data"`
}

func newAuthRequest(method, path, token string, data ...interface{}) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		_ = json.NewEncoder(&body).Encode(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func newRequest(method, path string, data ...interface{}) *http.Request {
	return newAuthRequest(method, path, "", data...)
}

func do(t *testing.T, app echoapi.Server, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func checkCode(t *testing.T, rec *httptest.ResponseRecorder, env envelope, wantCode int) {
	t.Helper()
	if rec.Code != wantCode {
		t.Errorf("code = %d; want %d (body %s)", rec.Code, wantCode, rec.Body.String())
	}
	if wantSuccess := wantCode < http.StatusBadRequest; env.Success != wantSuccess {
		t.Errorf("success = %v; want %v", env.Success, wantSuccess)
	}
}

func getToken(t *testing.T, usr user.User, conf *core.Config) string {
	t.Helper()
	token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, conf), conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}
