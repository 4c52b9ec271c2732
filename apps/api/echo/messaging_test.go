package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/edukit/eduhub/apps/api/echo"
	"github.com/edukit/eduhub/core/messaging"
	"github.com/edukit/eduhub/core/user"
	testutil "github.com/edukit/eduhub/tests"
)

func Test_messagingApi(t *testing.T) {
	server := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)

	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, student)

	send := func(t *testing.T, token, recipientID, body string) *http.Response {
		data := marchallObj(t, messaging.NewMessage{RecipientID: recipientID, Body: body})
		req, rec := newAuthRequest(http.MethodPost, "/v1/messages", token, data)
		server.ServeHTTP(rec, req)
		return rec.Result()
	}

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/messages")
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("failed! code = %v; want %v", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("Send", func(t *testing.T) {
		resp := send(t, studentToken, teacher.ID, "Bonjour, a question about homework.")
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("failed! code = %v", resp.StatusCode)
		}
	})

	t.Run("No self-messaging", func(t *testing.T) {
		resp := send(t, studentToken, student.ID, "me, myself and I")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("failed! code = %v; want %v", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("Unknown recipient", func(t *testing.T) {
		resp := send(t, studentToken, "ghost", "hello?")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("failed! code = %v; want %v", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("Inbox and unread counts", func(t *testing.T) {
		if resp := send(t, studentToken, teacher.ID, "A follow-up."); resp.StatusCode != http.StatusCreated {
			t.Fatalf("send failed: code = %v", resp.StatusCode)
		}

		req, rec := newAuthRequest(http.MethodGet, "/v1/messages", teacherToken)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v", rec.Code)
		}
		var convos []messaging.Conversation
		if err := json.Unmarshal(rec.Body.Bytes(), &convos); err != nil {
			t.Fatalf("decoding conversations: %v", err)
		}
		if len(convos) != 1 || convos[0].PeerID != student.ID || convos[0].Unread != 2 {
			t.Errorf("convos = %+v; want one conversation with 2 unread", convos)
		}
	})

	t.Run("Reading a conversation marks it read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/messages/"+student.ID, teacherToken)
		server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v", rec.Code)
		}
		var msgs []messaging.Message
		if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
			t.Fatalf("decoding messages: %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("got %d messages; want 2", len(msgs))
		}
		for i, msg := range msgs {
			if !msg.Read {
				t.Errorf("msgs[%d] still unread", i)
			}
		}

		// unread count drops to zero
		req, rec = newAuthRequest(http.MethodGet, "/v1/messages", teacherToken)
		server.ServeHTTP(rec, req)
		var convos []messaging.Conversation
		if err := json.Unmarshal(rec.Body.Bytes(), &convos); err != nil {
			t.Fatalf("decoding conversations: %v", err)
		}
		if len(convos) != 1 || convos[0].Unread != 0 {
			t.Errorf("convos = %+v; want zero unread", convos)
		}
	})

	t.Run("Explicit mark read", func(t *testing.T) {
		if resp := send(t, teacherToken, student.ID, "Answer: see chapter 3."); resp.StatusCode != http.StatusCreated {
			t.Fatalf("send failed: code = %v", resp.StatusCode)
		}

		req, rec := newAuthRequest(http.MethodPost, "/v1/messages/"+teacher.ID+"/read", studentToken)
		server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, MarkReadResponse{Read: 1})}, rec)
	})
}
