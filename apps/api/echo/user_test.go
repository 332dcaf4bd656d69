package echoapi_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/elimuhq/elimu/core/user"
	"github.com/elimuhq/elimu/tests"
)

func Test_userApi_authFlow(t *testing.T) {
	app, _ := setup(t)
	email := "awe@test.cd"

	// 1. request a code
	rec, env := do(t, app, newRequest(http.MethodPost, "/api/v1/auth/sendotp", map[string]string{"email": email}))
	checkCode(t, rec, env, http.StatusOK)
	if len(env.OTP) != 6 {
		t.Fatalf("otp = %q; want a 6-digit code in the body", env.OTP)
	}
	code := env.OTP

	signupBody := map[string]string{
		"first_name":       "Awe",
		"last_name":        "Mungu",
		"email":            email,
		"password":         "LikeItMatters",
		"confirm_password": "LikeItMatters",
		"account_type":     user.RoleStudent,
		"otp":              code,
	}

	// 2. signup with a wrong code
	wrong := map[string]string{}
	for k, v := range signupBody {
		wrong[k] = v
	}
	wrong["otp"] = "000000"
	if wrong["otp"] == code {
		wrong["otp"] = "000001"
	}
	rec, env = do(t, app, newRequest(http.MethodPost, "/api/v1/auth/signup", wrong))
	checkCode(t, rec, env, http.StatusBadRequest)

	// 3. signup with mismatched passwords
	wrong = map[string]string{}
	for k, v := range signupBody {
		wrong[k] = v
	}
	wrong["confirm_password"] = "Different"
	rec, env = do(t, app, newRequest(http.MethodPost, "/api/v1/auth/signup", wrong))
	checkCode(t, rec, env, http.StatusBadRequest)
	if _, ok := env.Errors["confirm_password"]; !ok {
		t.Errorf("errors = %v; want confirm_password", env.Errors)
	}

	// 4. signup
	rec, env = do(t, app, newRequest(http.MethodPost, "/api/v1/auth/signup", signupBody))
	checkCode(t, rec, env, http.StatusOK)
	var usr struct {
		Email       string `json:"email"`
		AccountType string `json:"account_type"`
		Image       string `json:"image"`
	}
	if err := json.Unmarshal(env.User, &usr); err != nil {
		t.Fatalf("decoding user: %v", err)
	}
	if usr.Email != email || usr.AccountType != user.RoleStudent || usr.Image == "" {
		t.Errorf("user = %+v; want email, account type and image set", usr)
	}
	if body := rec.Body.String(); strings.Contains(strings.ToLower(body), "password") {
		t.Errorf("response leaks password material: %s", body)
	}

	// 5. a registered email can no longer request a code
	rec, env = do(t, app, newRequest(http.MethodPost, "/api/v1/auth/sendotp", map[string]string{"email": email}))
	checkCode(t, rec, env, http.StatusBadRequest)

	// 6. login failures
	rec, env = do(t, app, newRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ghost@test.cd", "password": "LikeItMatters"}))
	checkCode(t, rec, env, http.StatusUnauthorized)
	rec, env = do(t, app, newRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": "NotIt"}))
	checkCode(t, rec, env, http.StatusUnauthorized)

	// 7. login
	rec, env = do(t, app, newRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": "LikeItMatters"}))
	checkCode(t, rec, env, http.StatusOK)
	if env.Token == "" {
		t.Fatal("token missing from login response")
	}
	var cookieToken string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "token" {
			cookieToken = cookie.Value
			if !cookie.HttpOnly {
				t.Error("token cookie is not HTTP-only")
			}
		}
	}
	if cookieToken != env.Token {
		t.Errorf("cookie token = %q; want %q", cookieToken, env.Token)
	}

	// 8. change password, token carried in the cookie
	req := newRequest(http.MethodPost, "/api/v1/auth/changepassword", map[string]string{
		"old_password": "LikeItMatters",
		"new_password": "EvenBetter",
	})
	req.AddCookie(&http.Cookie{Name: "token", Value: env.Token})
	rec, env = do(t, app, req)
	checkCode(t, rec, env, http.StatusOK)

	// 9. old password no longer works
	rec, env = do(t, app, newRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": "LikeItMatters"}))
	checkCode(t, rec, env, http.StatusUnauthorized)
	rec, env = do(t, app, newRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": "EvenBetter"}))
	checkCode(t, rec, env, http.StatusOK)
}

func Test_userApi_changePasswordTokenSources(t *testing.T) {
	app, deps := setup(t)
	usr := testutil.CreateUser(t, deps.usrRepo, "Awe", "Mungu", "awe@test.cd", "LikeItMatters", user.RoleStudent)
	token := getToken(t, usr, deps.conf)

	body := map[string]string{"old_password": "LikeItMatters", "new_password": "LikeItMatters"}

	t.Run("no token", func(t *testing.T) {
		rec, env := do(t, app, newRequest(http.MethodPost, "/api/v1/auth/changepassword", body))
		checkCode(t, rec, env, http.StatusUnauthorized)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec, env := do(t, app, newAuthRequest(http.MethodPost, "/api/v1/auth/changepassword", "not.a.token", body))
		checkCode(t, rec, env, http.StatusUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		expConf := *deps.conf
		expConf.Server.JWTExpirationDelta = -time.Hour
		rec, env := do(t, app, newAuthRequest(http.MethodPost, "/api/v1/auth/changepassword", getToken(t, usr, &expConf), body))
		checkCode(t, rec, env, http.StatusUnauthorized)
	})

	t.Run("Authorization header", func(t *testing.T) {
		rec, env := do(t, app, newAuthRequest(http.MethodPost, "/api/v1/auth/changepassword", token, body))
		checkCode(t, rec, env, http.StatusOK)
	})

	t.Run("body field", func(t *testing.T) {
		withToken := map[string]string{"old_password": "LikeItMatters", "new_password": "LikeItMatters", "token": token}
		rec, env := do(t, app, newRequest(http.MethodPost, "/api/v1/auth/changepassword", withToken))
		checkCode(t, rec, env, http.StatusOK)
	})

	t.Run("cookie", func(t *testing.T) {
		req := newRequest(http.MethodPost, "/api/v1/auth/changepassword", body)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rec, env := do(t, app, req)
		checkCode(t, rec, env, http.StatusOK)
	})
}
