package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"libris.dev/internal/auth"
	"libris.dev/internal/catalog"
)

const testSecret = "test-secret"

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	codec, err := auth.NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("token codec: %v", err)
	}
	authSvc, err := auth.NewService(auth.NewInMemory(), codec)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	ctx := context.Background()
	if err := authSvc.Register(ctx, "john_doe", "securepassword", auth.RoleLibrarian); err != nil {
		t.Fatalf("seed librarian: %v", err)
	}
	if err := authSvc.Register(ctx, "rahul", "password@123", auth.RoleMember); err != nil {
		t.Fatalf("seed member: %v", err)
	}

	books := catalog.NewInMemory()
	if _, err := books.Insert(ctx, catalog.Book{
		Title:       "Harry Potter",
		Author:      "JK Rowling",
		Description: "series",
	}); err != nil {
		t.Fatalf("seed book: %v", err)
	}

	api := New("test", authSvc, books)
	api.SetRateLimit(1000, 1000)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) postForm(path string, form url.Values) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("form request: %v", err)
	}
	return resp
}

func (c *apiClient) get(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodGet, path, nil, headers)
}

func (c *apiClient) obtainToken(username, password string) string {
	c.t.Helper()
	resp := c.postForm("/token", url.Values{
		"username": {username},
		"password": {password},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected token status: %d", resp.StatusCode)
	}
	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode token response: %v", err)
	}
	if payload.AccessToken == "" {
		c.t.Fatalf("empty token issued")
	}
	return payload.AccessToken
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestSignup(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/signup", map[string]any{
		"username": "meera",
		"password": "bookkeeper1",
		"role":     "LIBRARIAN",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["username"] != "meera" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["message"] == "" {
		t.Fatalf("expected confirmation message")
	}

	// Duplicate username.
	resp = api.post("/signup", map[string]any{
		"username": "meera",
		"password": "different1",
		"role":     "MEMBER",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate signup: expected 400, got %d", resp.StatusCode)
	}
	errBody := decode[map[string]any](t, resp)
	if !strings.Contains(errBody["error"].(string), "already exists") {
		t.Fatalf("unexpected error: %v", errBody["error"])
	}

	// Invalid role.
	resp = api.post("/signup", map[string]any{
		"username": "kiran",
		"password": "secret123",
		"role":     "ADMIN",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid role: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSignupValidation(t *testing.T) {
	api := newTestAPI(t)

	// Username below the minimum length.
	resp := api.post("/signup", map[string]any{
		"username": "ab",
		"password": "secret123",
		"role":     "MEMBER",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	fields, ok := body["fields"].(map[string]any)
	if !ok || fields["username"] == nil {
		t.Fatalf("expected username field error, got %v", body)
	}

	// Password below the minimum length.
	resp = api.post("/signup", map[string]any{
		"username": "kiran",
		"password": "short",
		"role":     "MEMBER",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body = decode[map[string]any](t, resp)
	fields, ok = body["fields"].(map[string]any)
	if !ok || fields["password"] == nil {
		t.Fatalf("expected password field error, got %v", body)
	}
}

func TestSignupAcceptsLongPassword(t *testing.T) {
	api := newTestAPI(t)

	long := strings.Repeat("a", 100)
	resp := api.post("/signup", map[string]any{
		"username": "longpass",
		"password": long,
		"role":     "MEMBER",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("long password signup: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The account must be usable end to end.
	api.obtainToken("longpass", long)
}

func TestListUsers(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/users", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	all := decode[[]map[string]any](t, resp)
	if len(all) != 2 {
		t.Fatalf("expected 2 seeded users, got %d", len(all))
	}

	resp = api.get("/users?role=LIBRARIAN", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	librarians := decode[[]map[string]any](t, resp)
	if len(librarians) != 1 || librarians[0]["username"] != "john_doe" {
		t.Fatalf("unexpected librarian listing: %v", librarians)
	}

	resp = api.get("/users?role=ADMIN", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid filter: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTokenAndMe(t *testing.T) {
	api := newTestAPI(t)

	token := api.obtainToken("rahul", "password@123")

	resp := api.get("/users/me", map[string]string{"Authorization": "Bearer " + token})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	me := decode[map[string]any](t, resp)
	if me["username"] != "rahul" || me["role"] != "MEMBER" {
		t.Fatalf("unexpected identity: %v", me)
	}
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t)

	wrongSecret := api.postForm("/token", url.Values{
		"username": {"rahul"},
		"password": {"wrong"},
	})
	if wrongSecret.StatusCode != http.StatusBadRequest {
		t.Fatalf("wrong password: expected 400, got %d", wrongSecret.StatusCode)
	}
	bodyA := decode[map[string]any](t, wrongSecret)

	unknownUser := api.postForm("/token", url.Values{
		"username": {"nobody"},
		"password": {"x"},
	})
	if unknownUser.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown user: expected 400, got %d", unknownUser.StatusCode)
	}
	bodyB := decode[map[string]any](t, unknownUser)

	// The two failures must be indistinguishable.
	if bodyA["error"] != bodyB["error"] {
		t.Fatalf("login failures leak account existence: %v vs %v", bodyA["error"], bodyB["error"])
	}
}

func TestMeRejectsBadTokens(t *testing.T) {
	api := newTestAPI(t)

	// No credentials at all.
	resp := api.get("/users/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatalf("expected WWW-Authenticate header")
	}
	resp.Body.Close()

	// Garbage token.
	resp = api.get("/users/me", map[string]string{"Authorization": "Bearer garbage"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Well-signed but already expired token: same externally visible 401.
	past := time.Now().UTC().Add(-2 * time.Hour)
	expiredCodec, err := auth.NewTokenCodec(testSecret, auth.WithClock(func() time.Time { return past }))
	if err != nil {
		t.Fatalf("token codec: %v", err)
	}
	expired, _, err := expiredCodec.Issue("rahul")
	if err != nil {
		t.Fatalf("issue expired token: %v", err)
	}
	resp = api.get("/users/me", map[string]string{"Authorization": "Bearer " + expired})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expired token: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBooksCRUD(t *testing.T) {
	api := newTestAPI(t)

	// Seeded catalog.
	resp := api.get("/books/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	books := decode[[]map[string]any](t, resp)
	if len(books) != 1 || books[0]["title"] != "Harry Potter" {
		t.Fatalf("unexpected seeded catalog: %v", books)
	}

	// Member may not create.
	resp = api.post("/books/?role=MEMBER", map[string]any{
		"title":  "Dune",
		"author": "Frank Herbert",
	}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("member create: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Librarian creates.
	resp = api.post("/books/?role=LIBRARIAN", map[string]any{
		"title":  "Dune",
		"author": "Frank Herbert",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("librarian create: expected 200, got %d", resp.StatusCode)
	}
	created := decode[map[string]any](t, resp)
	if created["id"].(float64) != 2 {
		t.Fatalf("expected id 2, got %v", created["id"])
	}

	// Fetch by id.
	resp = api.get("/books/2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get book: expected 200, got %d", resp.StatusCode)
	}
	got := decode[map[string]any](t, resp)
	if got["title"] != "Dune" {
		t.Fatalf("unexpected book: %v", got)
	}

	// Update.
	resp = api.do(http.MethodPut, "/books/2?role=LIBRARIAN", map[string]any{
		"title":  "Dune Messiah",
		"author": "Frank Herbert",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["title"] != "Dune Messiah" || updated["id"].(float64) != 2 {
		t.Fatalf("unexpected update result: %v", updated)
	}

	// Update of missing id.
	resp = api.do(http.MethodPut, "/books/99?role=LIBRARIAN", map[string]any{
		"title":  "x",
		"author": "y",
	}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update missing: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Delete without the librarian role.
	resp = api.do(http.MethodDelete, "/books/2", nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("delete without role: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Delete.
	resp = api.do(http.MethodDelete, "/books/2?role=LIBRARIAN", nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Gone afterwards.
	resp = api.get("/books/2", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Deleting again is still a 404.
	resp = api.do(http.MethodDelete, "/books/2?role=LIBRARIAN", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete missing: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBookValidation(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/books/?role=LIBRARIAN", map[string]any{
		"title": "No Author",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	fields, ok := body["fields"].(map[string]any)
	if !ok || fields["author"] == nil {
		t.Fatalf("expected author field error, got %v", body)
	}
}

func TestIndexAndHealth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.get("/", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("index: expected 200, got %d", resp.StatusCode)
	}
	info := decode[map[string]any](t, resp)
	if info["name"] != "libris-api" {
		t.Fatalf("unexpected index body: %v", info)
	}

	resp = api.get("/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
