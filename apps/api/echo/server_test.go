package echoapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/prajin1910/eval/apps/api/echo"
	"github.com/prajin1910/eval/core"
	"github.com/prajin1910/eval/core/chat"
	"github.com/prajin1910/eval/core/task"
	"github.com/prajin1910/eval/core/user"
	emailsvc "github.com/prajin1910/eval/services/email"
	pushsvc "github.com/prajin1910/eval/services/push"
	inmemdb "github.com/prajin1910/eval/storage/database/inmem"
)

type testServer struct {
	echoapi.Server

	userSvc *user.Service
	chatSvc *chat.Service
	taskSvc *task.Service
}

func setupServer(t *testing.T) *testServer {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	t.Cleanup(emailsvc.ClearSentMessages)

	logger := nopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock()
	hub := pushsvc.NewHub(logger)
	t.Cleanup(hub.Shutdown)

	userSvc := user.NewService(inmemdb.NewUserRepository(db), mailSvc)
	taskRepo := inmemdb.NewTaskRepository(db)
	taskSvc := task.NewService(taskRepo)
	chatSvc := chat.NewService(inmemdb.NewChatRepository(db), userSvc, hub, logger)

	validate, trans := core.NewValidator()
	srv := echoapi.NewServer(&echoapi.Options{
		Address:        ":0",
		DisableReqLogs: true,
		UserSvc:        userSvc,
		TaskSvc:        taskSvc,
		ChatSvc:        chatSvc,
		Hub:            hub,
		Validate:       validate,
		Translator:     trans,
	})
	return &testServer{Server: srv, userSvc: userSvc, chatSvc: chatSvc, taskSvc: taskSvc}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func (srv *testServer) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func (srv *testServer) createUser(t *testing.T, username, email string) user.User {
	usr, err := srv.userSvc.Create(user.NewUser{
		Name:     "Test " + username,
		Username: username,
		Email:    email,
		Password: "Secret123!",
		Role:     user.RoleStudent,
	})
	require.NoError(t, err)
	return usr
}

func TestHome(t *testing.T) {
	srv := setupServer(t)
	rec := srv.request(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to "+core.Conf.AppName)
}

func TestUserAPI_register(t *testing.T) {
	srv := setupServer(t)

	rec := srv.request(t, http.MethodPost, "/v1/users/register",
		`{"name":"Sam Doe","username":"samdoe","email":"sam@example.com","password":"Secret123!","role":"STUDENT"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var usr user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "samdoe", usr.Username)

	// missing fields are rejected with a per-field error map
	rec = srv.request(t, http.MethodPost, "/v1/users/register", `{"name":"No Body"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// duplicate username
	rec = srv.request(t, http.MethodPost, "/v1/users/register",
		`{"name":"Sam Doe","username":"samdoe","email":"sam2@example.com","password":"Secret123!","role":"STUDENT"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "username")
}

func TestUserAPI_retrieve(t *testing.T) {
	srv := setupServer(t)
	usr := srv.createUser(t, "samdoe", "sam@example.com")

	rec := srv.request(t, http.MethodGet, "/v1/users/"+usr.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), usr.Username)

	rec = srv.request(t, http.MethodGet, "/v1/users/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskAPI(t *testing.T) {
	srv := setupServer(t)
	usr := srv.createUser(t, "samdoe", "sam@example.com")

	rec := srv.request(t, http.MethodPost, "/v1/tasks",
		`{"title":"Essay","description":"Write it","student_id":"`+usr.ID+`","priority":"HIGH","due_at":"2026-09-15T12:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created task.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, task.StatusPending, created.Status)

	rec = srv.request(t, http.MethodGet, "/v1/tasks/student/"+usr.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.request(t, http.MethodPut, "/v1/tasks/"+created.ID+"/status", `{"status":"COMPLETED"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// a completed task is terminal
	rec = srv.request(t, http.MethodPut, "/v1/tasks/"+created.ID+"/status", `{"status":"PENDING"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// unknown status value
	rec = srv.request(t, http.MethodPut, "/v1/tasks/"+created.ID+"/status", `{"status":"DONE"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.request(t, http.MethodGet, "/v1/tasks/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatAPI(t *testing.T) {
	srv := setupServer(t)
	sender := srv.createUser(t, "samdoe", "sam@example.com")
	receiver := srv.createUser(t, "ritadoe", "rita@example.com")

	rec := srv.request(t, http.MethodPost, "/v1/chat/send",
		`{"sender_id":"`+sender.ID+`","receiver_id":"`+receiver.ID+`","message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var msg chat.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, sender.ID, msg.SenderID)

	// blank message bodies are rejected
	rec = srv.request(t, http.MethodPost, "/v1/chat/send",
		`{"sender_id":"`+sender.ID+`","receiver_id":"`+receiver.ID+`","message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// receiver's unread count shows up in their conversation list
	rec = srv.request(t, http.MethodGet, "/v1/chat/conversations/"+receiver.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var convs []chat.ConversationSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, sender.ID, convs[0].UserID)
	assert.Equal(t, 1, convs[0].UnreadCount)

	// fetching messages resets the fetching user's counter
	rec = srv.request(t, http.MethodGet, "/v1/chat/messages/"+receiver.ID+"/"+sender.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []chat.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)

	rec = srv.request(t, http.MethodGet, "/v1/chat/conversations/"+receiver.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	convs = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &convs))
	require.Len(t, convs, 1)
	assert.Equal(t, 0, convs[0].UnreadCount)
}
