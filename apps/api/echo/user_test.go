package echoapi_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/edukit/eduhub/core/user"
	testutil "github.com/edukit/eduhub/tests"
)

func Test_userApi_query(t *testing.T) {
	server := setup(t)

	path := func(search, ordering string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admino", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog42", "ndog@test.cd", "", []string{user.RoleStudent}, false)

	adminToken := getToken(t, admin)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: "/v1/users", token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, student, admin, teacher, naughty),
		},
		{name: "search (unknown)", path: path("lol", "", nil), token: adminToken, wantCode: http.StatusOK, wantData: empty},
		{
			name: "search=hero", path: path("hero", "", nil), token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, student),
		},
		{
			name: "role=student:", path: path("", "", nil, user.RoleStudent), token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, student, naughty),
		},
		{
			name: "is_active=false", path: path("", "", bPtr(false)), token: adminToken, wantCode: http.StatusOK,
			wantData: marchallList(t, naughty),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("ordering=-name", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path("", "-name", nil), adminToken)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v", rec.Code)
		}
		var users []user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
			t.Fatalf("decoding users: %v", err)
		}
		want := []string{"Teacher", "N Dog", "Hero", "Admin"}
		if len(users) != len(want) {
			t.Fatalf("got %d users; want %d", len(users), len(want))
		}
		for i, name := range want {
			if users[i].Name != name {
				t.Errorf("users[%d].Name = %v; want %v", i, users[i].Name, name)
			}
		}
	})
}

func Test_userApi_crud(t *testing.T) {
	server := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admino", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	t.Run("Create", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{
			Name:            "Teacher",
			Username:        "teach1",
			Email:           "teacher@test.cd",
			Password:        "LeFixe!2",
			PasswordConfirm: "LeFixe!2",
			Roles:           []string{user.RoleTeacher},
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/users", adminToken, body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Errorf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
	})

	t.Run("Retrieve self", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, student)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+student.ID, studentToken)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Retrieve other is hidden", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+admin.ID, studentToken)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Non-admin cannot touch roles", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{"roles": []string{user.RoleAdmin}})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+student.ID, studentToken, body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("Update own name", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{"name": "Hero Junior"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+student.ID, studentToken, body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("decoding user: %v", err)
		}
		if usr.Name != "Hero Junior" {
			t.Errorf("name = %v; want Hero Junior", usr.Name)
		}
	})

	t.Run("No self-destruction", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, adminToken)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusForbidden)
		}
	})

	t.Run("Destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+student.ID, adminToken)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusNoContent)
		}
		if _, err := usrRepo.GetUserByID(student.ID); err != user.ErrNotFound {
			t.Errorf("user still present after destroy; err = %v", err)
		}
	})
}

func Test_userApi_tokenRefresh(t *testing.T) {
	server := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, student))
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Token == "" {
		t.Error("refresh returned an empty token")
	}
}
