package echoapi_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	. "github.com/edukit/eduhub/apps/api/echo"
	"github.com/edukit/eduhub/core/user"
)

func Test_sessionApi_state(t *testing.T) {
	server := setup(t)

	tests := []httpTest{
		{
			name: "Client session header required", path: "/v1/session", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "missing X-Client-Session header"}),
		},
		{
			name: "Fresh client is anonymous", path: "/v1/session", client: "c1", wantCode: http.StatusOK,
			wantData: marchallObj(t, SessionResponse{Kind: "anonymous", Verification: "n/a"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newClientRequest(http.MethodGet, tt.path, tt.client, "")
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_sessionApi_lifecycle(t *testing.T) {
	server := setup(t)

	// register
	body := marchallObj(t, user.NewUser{
		Name:            "Aminata Diallo",
		Username:        "aminata",
		Email:           "aminata@test.cd",
		Password:        "LeFixe!2",
		PasswordConfirm: "LeFixe!2",
		Roles:           []string{user.RoleStudent},
	})
	req, rec := newClientRequest(http.MethodPost, "/v1/session/register", "c1", "", body)
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: code = %v; body = %v", rec.Code, rec.Body.String())
	}
	var auth AuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &auth); err != nil {
		t.Fatalf("decoding AuthResponse: %v", err)
	}
	if auth.Token == "" {
		t.Error("register returned an empty token")
	}
	if auth.Session.Kind != "authenticated" || auth.Session.Verification != "unverified" {
		t.Errorf("session = %v/%v; want authenticated/unverified", auth.Session.Kind, auth.Session.Verification)
	}

	// a signed-in but unverified account is reported as such, not rejected
	req, rec = newClientRequest(http.MethodGet, "/v1/session/verification", "c1", "")
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, VerificationStatusResponse{})}, rec)

	// confirm the emailed uid+token pair
	usr, err := usrRepo.GetUserByEmail("aminata@test.cd")
	if err != nil {
		t.Fatalf("finding registered user: %v", err)
	}
	confirm := marchallObj(t, user.ConfirmVerification{UID: user.EncodeUID(usr), Token: user.MakeToken(usr)})
	req, rec = newClientRequest(http.MethodPost, "/v1/session/verification/confirm", "c1", "", confirm)
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm failed: code = %v; body = %v", rec.Code, rec.Body.String())
	}

	// status is a fresh read, never the cached flag
	req, rec = newClientRequest(http.MethodGet, "/v1/session/verification", "c1", "")
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, VerificationStatusResponse{Verified: true})}, rec)

	// logout
	req, rec = newClientRequest(http.MethodPost, "/v1/session/logout", "c1", "")
	server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, SessionResponse{Kind: "anonymous", Verification: "n/a"}),
	}, rec)

	// login
	tests := []httpTest{
		{
			name: "Unknown username", body: marchallObj(t, LoginRequest{Username: "nobody", Password: "LeFixe!2"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Wrong password", body: marchallObj(t, LoginRequest{Username: "aminata", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newClientRequest(http.MethodPost, "/v1/session/login", "c1", "", tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	body = marchallObj(t, LoginRequest{Username: "aminata", Password: "LeFixe!2", RememberMe: true})
	req, rec = newClientRequest(http.MethodPost, "/v1/session/login", "c1", "", body)
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: code = %v; body = %v", rec.Code, rec.Body.String())
	}
	auth = AuthResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &auth); err != nil {
		t.Fatalf("decoding AuthResponse: %v", err)
	}
	if auth.Session.Kind != "authenticated" || auth.Session.Verification != "verified" {
		t.Errorf("session = %v/%v; want authenticated/verified", auth.Session.Kind, auth.Session.Verification)
	}
}

func Test_sessionApi_demo(t *testing.T) {
	server := setup(t)

	startDemo := func(t *testing.T, client, role string) *http.Response {
		req, rec := newClientRequest(http.MethodPost, "/v1/session/demo", client, "", marchallObj(t, DemoRequest{Role: role}))
		server.ServeHTTP(rec, req)
		return rec.Result()
	}

	t.Run("Start and end", func(t *testing.T) {
		resp := startDemo(t, "c1", user.RoleStudent)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("start demo failed: code = %v", resp.StatusCode)
		}
		var sess SessionResponse
		if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
			t.Fatalf("decoding SessionResponse: %v", err)
		}
		if sess.Kind != "demo" || sess.Persona == nil || sess.Persona.Role != user.RoleStudent {
			t.Errorf("session = %+v; want a student demo persona", sess)
		}

		req, rec := newClientRequest(http.MethodDelete, "/v1/session/demo", "c1", "")
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SessionResponse{Kind: "anonymous", Verification: "n/a"}),
		}, rec)

		// ending twice is a no-op
		req, rec = newClientRequest(http.MethodDelete, "/v1/session/demo", "c1", "")
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("second end failed: code = %v", rec.Code)
		}
	})

	t.Run("Invalid role", func(t *testing.T) {
		resp := startDemo(t, "c2", "principal:")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("Rejected while authenticated", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{
			Name:            "Demo Blocker",
			Username:        "blocker",
			Email:           "blocker@test.cd",
			Password:        "LeFixe!2",
			PasswordConfirm: "LeFixe!2",
		})
		req, rec := newClientRequest(http.MethodPost, "/v1/session/register", "c3", "", body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("register failed: code = %v; body = %v", rec.Code, rec.Body.String())
		}

		resp := startDemo(t, "c3", user.RoleStudent)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("Clients are isolated", func(t *testing.T) {
		if resp := startDemo(t, "c4", user.RoleTeacher); resp.StatusCode != http.StatusOK {
			t.Fatalf("start demo failed: code = %v", resp.StatusCode)
		}
		req, rec := newClientRequest(http.MethodGet, "/v1/session", "c5", "")
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SessionResponse{Kind: "anonymous", Verification: "n/a"}),
		}, rec)
	})
}

func Test_sessionApi_guard(t *testing.T) {
	server := setup(t)

	guardPath := func(requiresAuth, requiresVerified, entry, verifyPage bool) string {
		v := make(url.Values)
		v.Add("requires_auth", strconv.FormatBool(requiresAuth))
		v.Add("requires_verified", strconv.FormatBool(requiresVerified))
		v.Add("entry", strconv.FormatBool(entry))
		v.Add("verify_page", strconv.FormatBool(verifyPage))
		return "/v1/session/guard?" + v.Encode()
	}

	// demo client
	req, rec := newClientRequest(http.MethodPost, "/v1/session/demo", "demo", "", marchallObj(t, DemoRequest{Role: user.RoleStudent}))
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("start demo failed: code = %v", rec.Code)
	}

	tests := []httpTest{
		{name: "Anonymous public", client: "anon", path: guardPath(false, false, false, false), extra: "allow"},
		{name: "Anonymous protected", client: "anon", path: guardPath(true, false, false, false), extra: "redirect-entry"},
		{name: "Anonymous entry", client: "anon", path: guardPath(false, false, true, false), extra: "allow"},
		{name: "Anonymous verify page", client: "anon", path: guardPath(false, false, false, true), extra: "redirect-entry"},
		{name: "Demo protected", client: "demo", path: guardPath(true, false, false, false), extra: "allow"},
		{name: "Demo strict", client: "demo", path: guardPath(true, true, false, false), extra: "allow"},
		{name: "Demo entry", client: "demo", path: guardPath(false, false, true, false), extra: "redirect-home"},
		{name: "Demo verify page", client: "demo", path: guardPath(false, false, false, true), extra: "redirect-home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.wantCode = http.StatusOK
			tt.wantData = marchallObj(t, GuardResponse{Decision: fmt.Sprint(tt.extra)})
			req, rec := newClientRequest(http.MethodGet, tt.path, tt.client, "")
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
