package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/edukit/eduhub/apps/api/echo"
	"github.com/edukit/eduhub/core"
	"github.com/edukit/eduhub/core/library"
	"github.com/edukit/eduhub/core/messaging"
	"github.com/edukit/eduhub/core/post"
	"github.com/edukit/eduhub/core/user"
	emailsvc "github.com/edukit/eduhub/services/email"
	"github.com/edukit/eduhub/storage/blob"
	dummydb "github.com/edukit/eduhub/storage/database/dummy"
	"github.com/edukit/eduhub/storage/kv"
)

var (
	usrRepo  user.Repository
	postRepo post.Repository
	libRepo  library.Repository
	msgRepo  messaging.Repository

	usrSvc user.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func testConfig() *core.Config {
	return &core.Config{
		AppName:   "EduHub",
		TestMode:  true,
		SecretKey: []byte("s3cr3t"),
		Server: core.ServerConfig{
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Session: core.SessionConfig{
			DemoDuration:             10 * time.Minute,
			VerifyPollInterval:       10 * time.Millisecond,
			LoadTimeout:              time.Second,
			VerificationTokenTimeout: 3 * 24 * time.Hour,
		},
	}
}

func setup(t *testing.T) Server {
	conf := testConfig()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	postRepo = dummydb.NewPostRepository(db)
	libRepo = dummydb.NewLibraryRepository(db)
	msgRepo = dummydb.NewMessageRepository(db)

	logger := new(core.NopLogger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc = user.NewService(conf, usrRepo, mailSvc)
	postSvc := post.NewService(postRepo, logger)
	libSvc := library.NewService(libRepo, blob.NewInMemStore(), logger)
	msgSvc := messaging.NewService(msgRepo, usrSvc)

	kvStore := kv.NewInMemStore()
	registry := NewRegistry(conf, usrSvc, kvStore, logger)
	t.Cleanup(registry.Close)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	return NewServer(
		&Options{
			DisableReqLogs: true,
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			UserSvc:        usrSvc,
			PostSvc:        postSvc,
			LibrarySvc:     libSvc,
			MessagingSvc:   msgSvc,
			Registry:       registry,
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	client   string // X-Client-Session header
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func newClientRequest(method, path, clientID, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	req, rec := newAuthRequest(method, path, token, data...)
	if clientID != "" {
		req.Header.Set(ClientSessionHeader, clientID)
	}
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
