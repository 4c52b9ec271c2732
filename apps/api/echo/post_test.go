package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/edukit/eduhub/apps/api/echo"
	"github.com/edukit/eduhub/core/post"
	"github.com/edukit/eduhub/core/user"
	testutil "github.com/edukit/eduhub/tests"
)

func Test_postApi(t *testing.T) {
	server := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admino", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, student)

	var created post.Post

	t.Run("Create requires auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/posts", marchallObj(t, post.NewPost{Content: "hi"}))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("Create", func(t *testing.T) {
		body := marchallObj(t, post.NewPost{Content: "Exam prep session this Friday."})
		req, rec := newAuthRequest(http.MethodPost, "/v1/posts", teacherToken, body)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("decoding post: %v", err)
		}
		if created.AuthorName != "Teacher" || created.AuthorRole != user.RoleTeacher {
			t.Errorf("author = %v/%v; want Teacher/%v", created.AuthorName, created.AuthorRole, user.RoleTeacher)
		}
	})

	t.Run("Empty content rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/posts", teacherToken, marchallObj(t, post.NewPost{}))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("Feed is public", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/posts")
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v", rec.Code)
		}
		var posts []post.Post
		if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
			t.Fatalf("decoding posts: %v", err)
		}
		if len(posts) != 1 || posts[0].ID != created.ID {
			t.Errorf("posts = %+v; want the created post only", posts)
		}
	})

	t.Run("Like", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/posts/"+created.ID+"/like", studentToken)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, LikeResponse{Likes: 1})}, rec)

		req, rec = newAuthRequest(http.MethodPost, "/v1/posts/"+created.ID+"/like", studentToken)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, LikeResponse{Likes: 2})}, rec)
	})

	t.Run("Like unknown post", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/posts/nope/like", studentToken)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("Only author or admin deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/posts/"+created.ID, studentToken)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusForbidden)
		}

		req, rec = newAuthRequest(http.MethodDelete, "/v1/posts/"+created.ID, getToken(t, admin))
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusNoContent)
		}
	})
}
