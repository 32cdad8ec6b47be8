package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cliptag/cliptag/internal/infrastructure/auth"
	"github.com/cliptag/cliptag/internal/infrastructure/configs"
	"github.com/cliptag/cliptag/internal/infrastructure/events"
	"github.com/cliptag/cliptag/internal/infrastructure/logging"
	"github.com/cliptag/cliptag/internal/infrastructure/ratelimiter"
	"github.com/cliptag/cliptag/internal/infrastructure/repository"
	"github.com/cliptag/cliptag/internal/infrastructure/ws"
	"github.com/cliptag/cliptag/internal/presentation/api"
	"github.com/cliptag/cliptag/internal/presentation/handler/authn"
	"github.com/cliptag/cliptag/internal/presentation/handler/clip"
	"github.com/cliptag/cliptag/internal/presentation/handler/files"
	"github.com/cliptag/cliptag/internal/presentation/handler/health"
	"github.com/cliptag/cliptag/internal/presentation/handler/realtime"
	"github.com/cliptag/cliptag/internal/presentation/handler/rooms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gorillaws "github.com/gorilla/websocket"
)

type nopLogger struct{}

func (nopLogger) Init() {}

func (nopLogger) Debug(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Debugf(string, ...any)                                                         {}
func (nopLogger) Info(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Infof(string, ...any)                                                          {}
func (nopLogger) Warn(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any)  {}
func (nopLogger) Warnf(string, ...any)                                                          {}
func (nopLogger) Error(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Errorf(string, ...any)                                                         {}
func (nopLogger) Fatal(logging.Category, logging.SubCategory, string, map[logging.ExtraKey]any) {}
func (nopLogger) Fatalf(string, ...any)                                                         {}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := configs.Config{
		RateLimiter: configs.RateLimiterConfig{
			MaxRatePerSecond: 1000,
			MaxBurst:         1000,
		},
		ContentStore: configs.ContentStoreConfig{
			ClipboardTTL:      15 * time.Minute,
			FileTTL:           10 * time.Minute,
			MaxClipboardChars: 10_000,
			MaxFileBytes:      1 << 20,
		},
		Rooms: configs.RoomConfig{DefaultMaxUsers: 10},
		Auth:  configs.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
	}

	registry := repository.NewRoomRegistry(cfg.Rooms.DefaultMaxUsers)
	users := repository.NewUserRepository()
	store := repository.NewContentStore(repository.Options{
		ClipboardTTL:      cfg.ContentStore.ClipboardTTL,
		FileTTL:           cfg.ContentStore.FileTTL,
		MaxClipboardChars: cfg.ContentStore.MaxClipboardChars,
		MaxFileBytes:      cfg.ContentStore.MaxFileBytes,
	}, nopLogger{})

	hub := ws.NewHub()
	identity := auth.NewService(users, auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))

	var publisher *events.ContentPublisher

	app := api.NewApplication(
		cfg,
		registry,
		*clip.NewHandler(store, hub, publisher),
		*files.NewHandler(store, hub, publisher, cfg.ContentStore.MaxFileBytes),
		*rooms.NewHandler(registry, store, hub, identity, publisher),
		*authn.NewHandler(identity),
		*realtime.NewHandler(hub, registry),
		*health.NewHandler(),
		nopLogger{},
		ratelimiter.New(ratelimiter.Options{
			MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
			MaxBurst:         cfg.RateLimiter.MaxBurst,
		}),
	)

	srv := httptest.NewServer(app.Mount())
	t.Cleanup(srv.Close)

	return srv
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}

	return resp, decoded
}

func TestClipboardRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/clip/AB12", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["exists"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/clip/AB12", map[string]string{"content": "hello"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", body["content"])

	// Tags are case-insensitive on input.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/clip/ab12", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", body["content"])
	require.NotNil(t, body["expiresIn"], "TTL deployments must report expiry info")
	expires := body["expiresIn"].(map[string]any)
	assert.InDelta(t, 15, expires["minutesRemaining"], 1)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/clip/AB12", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/clip/AB12", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["exists"])
}

func TestInvalidTagRejected(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/clip/TOOLONG1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/clip/AB-2", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPasswordGate(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/rooms", map[string]any{
		"tag":      "SEC1",
		"password": "letmein",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// No password: 401 with the requiresPassword marker.
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/clip/SEC1", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, true, body["requiresPassword"])

	// Wrong password: still 401.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/clip/SEC1", nil, map[string]string{
		"X-Room-Password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Correct password unlocks every content route.
	headers := map[string]string{"X-Room-Password": "letmein"}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/clip/SEC1", map[string]string{"content": "secret"}, headers)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/clip/SEC1", nil, headers)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "secret", body["content"])

	// The validate endpoint reports without granting.
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/rooms/SEC1/validate", map[string]string{"password": "letmein"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/rooms/SEC1/validate", map[string]string{"password": "nope"}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["valid"])
}

func TestRoomManagement(t *testing.T) {
	srv := newTestServer(t)

	// Management routes never vivify.
	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/rooms/ZZ99", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/rooms", map[string]string{"tag": "RM01"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/rooms", map[string]string{"tag": "RM01"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/rooms/RM01", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "RM01", body["tag"])
	assert.Equal(t, float64(0), body["userCount"])
}

func TestOwnerLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", map[string]string{
		"username": "alice",
		"password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	authed := map[string]string{"Authorization": "Bearer " + token}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/rooms", map[string]string{"tag": "OWN1"}, authed)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/clip/OWN1", map[string]string{"content": "mine"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Rename moves the room and its content; anonymous callers are refused.
	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/api/rooms/OWN1", map[string]string{"tag": "OWN2"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/api/rooms/OWN1", map[string]string{"tag": "OWN2"}, authed)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/clip/OWN2", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "mine", body["content"])

	// Delete cascades to content.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/rooms/OWN2", nil, authed)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/rooms/OWN2", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/clip/OWN2", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["exists"])
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", map[string]string{
		"username": "bob",
		"password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", map[string]string{
		"username": "bob",
		"password": "different",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", map[string]string{
		"username": "bob",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", map[string]string{
		"username": "bob",
		"password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
}

func TestFileLifecycle(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("file contents"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/upload/FL01", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var uploaded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	fileID, _ := uploaded["fileId"].(string)
	require.NotEmpty(t, fileID)
	assert.Equal(t, "notes.txt", uploaded["fileName"])

	listResp, listBody := doJSON(t, http.MethodGet, srv.URL+"/api/files/FL01", nil, nil)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Equal(t, float64(1), listBody["totalFiles"])
	assert.Equal(t, float64(len("file contents")), listBody["totalSize"])

	dl, err := http.Get(srv.URL + "/api/download/FL01/" + fileID)
	require.NoError(t, err)
	defer dl.Body.Close()
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "notes.txt")
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(data))

	delResp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/file/FL01/"+fileID, nil, nil)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	missing, _ := doJSON(t, http.MethodGet, srv.URL+"/api/file/FL01/"+fileID, nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestRealtimeBroadcast(t *testing.T) {
	srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "join", "room": "rt01"}))

	readFrame := func() map[string]any {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var frame map[string]any
		require.NoError(t, conn.ReadJSON(&frame))
		return frame
	}

	frame := readFrame()
	assert.Equal(t, "userCount", frame["type"])
	assert.Equal(t, "RT01", frame["room"])

	frame = readFrame()
	assert.Equal(t, "joined", frame["type"])

	// A clipboard write over HTTP shows up on the socket.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/clip/RT01", map[string]string{"content": "live"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	frame = readFrame()
	assert.Equal(t, "clipboardUpdate", frame["type"])
	data := frame["data"].(map[string]any)
	assert.Equal(t, "live", data["content"])
}

func TestTwoClientScenario(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/rooms", map[string]string{"tag": "Z9Q1"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	dial := func() *gorillaws.Conn {
		conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "join", "room": "Z9Q1"}))
		return conn
	}

	readFrame := func(conn *gorillaws.Conn) map[string]any {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var frame map[string]any
		require.NoError(t, conn.ReadJSON(&frame))
		return frame
	}

	// waitFor skips occupancy chatter until the wanted event type arrives.
	waitFor := func(conn *gorillaws.Conn, eventType string) map[string]any {
		for i := 0; i < 10; i++ {
			frame := readFrame(conn)
			if frame["type"] == eventType {
				return frame
			}
		}
		t.Fatalf("never received %q", eventType)
		return nil
	}

	first := dial()
	waitFor(first, "joined")
	second := dial()
	waitFor(second, "joined")

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/clip/Z9Q1", map[string]string{"content": "hello"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, conn := range []*gorillaws.Conn{first, second} {
		frame := waitFor(conn, "clipboardUpdate")
		assert.Equal(t, "hello", frame["data"].(map[string]any)["content"])
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "report.pdf")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("a"), 1234))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/upload/Z9Q1", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	uploadResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer uploadResp.Body.Close()
	require.Equal(t, http.StatusCreated, uploadResp.StatusCode)

	var fileID string
	for _, conn := range []*gorillaws.Conn{first, second} {
		frame := waitFor(conn, "fileUpload")
		data := frame["data"].(map[string]any)
		assert.Equal(t, "report.pdf", data["fileName"])
		assert.Equal(t, float64(1234), data["fileSize"])
		fileID = data["fileId"].(string)
	}
	require.NotEmpty(t, fileID)

	listResp, listBody := doJSON(t, http.MethodGet, srv.URL+"/api/files/Z9Q1", nil, nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Equal(t, float64(1), listBody["totalFiles"])

	delResp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/file/Z9Q1/"+fileID, nil, nil)
	require.Equal(t, http.StatusNoContent, delResp.StatusCode)

	for _, conn := range []*gorillaws.Conn{first, second} {
		frame := waitFor(conn, "fileDelete")
		assert.Equal(t, fileID, frame["data"].(map[string]any)["fileId"])
	}

	listResp, listBody = doJSON(t, http.MethodGet, srv.URL+"/api/files/Z9Q1", nil, nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Equal(t, float64(0), listBody["totalFiles"])
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestRejectsOversizedClipboard(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/clip/BIG1", map[string]string{
		"content": strings.Repeat("x", 10_001),
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/clip/BIG1", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["exists"], "rejected write must leave no partial state")
}
