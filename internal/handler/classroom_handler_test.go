package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/classroom-api/pkg/errors"
)

type classroomServiceMock struct {
	registerErr   error
	commonResp    []string
	commonErr     error
	suspendErr    error
	notifyResp    []string
	notifyErr     error
	lastTeacher   string
	lastTeachers  []string
	lastStudents  []string
	lastStudent   string
	lastText      string
	registerCalls int
	commonCalls   int
	suspendCalls  int
	notifyCalls   int
}

func (m *classroomServiceMock) RegisterStudents(ctx context.Context, teacherEmail string, studentEmails []string) error {
	m.registerCalls++
	m.lastTeacher = teacherEmail
	m.lastStudents = studentEmails
	return m.registerErr
}

func (m *classroomServiceMock) CommonStudents(ctx context.Context, teacherEmails []string) ([]string, error) {
	m.commonCalls++
	m.lastTeachers = teacherEmails
	return m.commonResp, m.commonErr
}

func (m *classroomServiceMock) SuspendStudent(ctx context.Context, studentEmail string) error {
	m.suspendCalls++
	m.lastStudent = studentEmail
	return m.suspendErr
}

func (m *classroomServiceMock) RetrieveForNotifications(ctx context.Context, teacherEmail, notification string) ([]string, error) {
	m.notifyCalls++
	m.lastTeacher = teacherEmail
	m.lastText = notification
	return m.notifyResp, m.notifyErr
}

func newClassroomRouter(svc classroomService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewClassroomHandler(svc, nil)
	r := gin.New()
	r.NoRoute(NotFound)
	api := r.Group("/api")
	api.POST("/register", h.Register)
	api.GET("/commonstudents", h.CommonStudents)
	api.POST("/suspend", h.Suspend)
	api.POST("/retrievefornotifications", h.RetrieveForNotifications)
	return r
}

func doRequest(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error appErrors.Error `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) appErrors.Error {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestClassroomHandlerRegister(t *testing.T) {
	svc := &classroomServiceMock{}
	r := newClassroomRouter(svc)

	w := doRequest(r, http.MethodPost, "/api/register",
		`{"teacher":"TeacherKen@gmail.com","students":["studentjon@gmail.com","StudentHon@gmail.com"]}`)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "teacherken@gmail.com", svc.lastTeacher)
	assert.Equal(t, []string{"studentjon@gmail.com", "studenthon@gmail.com"}, svc.lastStudents)
}

func TestClassroomHandlerRegisterValidation(t *testing.T) {
	cases := map[string]string{
		"malformed json":   `{"teacher":`,
		"missing teacher":  `{"students":["a@b.com"]}`,
		"bad teacher":      `{"teacher":"nope","students":["a@b.com"]}`,
		"empty students":   `{"teacher":"t@b.com","students":[]}`,
		"missing students": `{"teacher":"t@b.com"}`,
		"bad student":      `{"teacher":"t@b.com","students":["a@b.com","bad"]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &classroomServiceMock{}
			w := doRequest(newClassroomRouter(svc), http.MethodPost, "/api/register", body)

			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
			assert.Zero(t, svc.registerCalls)
		})
	}
}

func TestClassroomHandlerRegisterReportsAllErrors(t *testing.T) {
	w := doRequest(newClassroomRouter(&classroomServiceMock{}), http.MethodPost, "/api/register",
		`{"teacher":"nope","students":["a@b.com","bad"]}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{
		"teacher must be a valid email address",
		"students[1] must be a valid email address",
	}, decodeError(t, w).Details)
}

func TestClassroomHandlerRegisterStorageError(t *testing.T) {
	svc := &classroomServiceMock{registerErr: appErrors.Wrap(errors.New("pq: boom"), appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to register students")}
	w := doRequest(newClassroomRouter(svc), http.MethodPost, "/api/register", `{"teacher":"t@b.com","students":["a@b.com"]}`)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq: boom")
}

func TestClassroomHandlerCommonStudents(t *testing.T) {
	svc := &classroomServiceMock{commonResp: []string{"commonstudent1@gmail.com", "commonstudent2@gmail.com"}}
	r := newClassroomRouter(svc)

	w := doRequest(r, http.MethodGet, "/api/commonstudents?teacher=teacherken%40gmail.com&teacher=TeacherJoe%40gmail.com", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"students":["commonstudent1@gmail.com","commonstudent2@gmail.com"]}}`, w.Body.String())
	assert.Equal(t, []string{"teacherken@gmail.com", "teacherjoe@gmail.com"}, svc.lastTeachers)
}

func TestClassroomHandlerCommonStudentsEmptyList(t *testing.T) {
	svc := &classroomServiceMock{commonResp: []string{}}
	w := doRequest(newClassroomRouter(svc), http.MethodGet, "/api/commonstudents?teacher=teacherken%40gmail.com", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"students":[]}}`, w.Body.String())
}

func TestClassroomHandlerCommonStudentsValidation(t *testing.T) {
	svc := &classroomServiceMock{}
	r := newClassroomRouter(svc)

	w := doRequest(r, http.MethodGet, "/api/commonstudents", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/commonstudents?teacher=teacherken", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"teacher[0] must be a valid email address"}, decodeError(t, w).Details)
	assert.Zero(t, svc.commonCalls)
}

func TestClassroomHandlerCommonStudentsNotFound(t *testing.T) {
	svc := &classroomServiceMock{commonErr: appErrors.WithDetails(appErrors.Clone(appErrors.ErrNotFound, "teachers not found: ghost@gmail.com"), "ghost@gmail.com")}
	w := doRequest(newClassroomRouter(svc), http.MethodGet, "/api/commonstudents?teacher=ghost%40gmail.com", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Equal(t, []string{"ghost@gmail.com"}, body.Details)
}

func TestClassroomHandlerSuspend(t *testing.T) {
	svc := &classroomServiceMock{}
	r := newClassroomRouter(svc)

	w := doRequest(r, http.MethodPost, "/api/suspend", `{"student":"StudentMary@gmail.com"}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "studentmary@gmail.com", svc.lastStudent)

	w = doRequest(r, http.MethodPost, "/api/suspend", `{"student":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"student is required"}, decodeError(t, w).Details)
	assert.Equal(t, 1, svc.suspendCalls)
}

func TestClassroomHandlerSuspendNotFound(t *testing.T) {
	svc := &classroomServiceMock{suspendErr: appErrors.WithDetails(appErrors.Clone(appErrors.ErrNotFound, "student not found"), "ghost@gmail.com")}
	w := doRequest(newClassroomRouter(svc), http.MethodPost, "/api/suspend", `{"student":"ghost@gmail.com"}`)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassroomHandlerRetrieveForNotifications(t *testing.T) {
	svc := &classroomServiceMock{notifyResp: []string{"studentagnes@gmail.com", "studentbob@gmail.com"}}
	r := newClassroomRouter(svc)

	w := doRequest(r, http.MethodPost, "/api/retrievefornotifications",
		`{"teacher":"teacherken@gmail.com","notification":"Hello students! @studentagnes@gmail.com"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"recipients":["studentagnes@gmail.com","studentbob@gmail.com"]}}`, w.Body.String())
	assert.Equal(t, "Hello students! @studentagnes@gmail.com", svc.lastText)
}

func TestClassroomHandlerRetrieveForNotificationsValidation(t *testing.T) {
	svc := &classroomServiceMock{}
	w := doRequest(newClassroomRouter(svc), http.MethodPost, "/api/retrievefornotifications", `{"teacher":"teacherken@gmail.com"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"notification is required"}, decodeError(t, w).Details)
	assert.Zero(t, svc.notifyCalls)
}

func TestNotFoundRoute(t *testing.T) {
	w := doRequest(newClassroomRouter(&classroomServiceMock{}), http.MethodGet, "/api/unknown", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.Equal(t, []string{"GET /api/unknown"}, body.Details)
}
