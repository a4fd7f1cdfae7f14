package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/stash/internal/stash"
	"github.com/starford/stash/internal/stashservice"
	"github.com/starford/stash/internal/testutil"
)

// testEnv builds a service over an in-memory store and the router in front of it.
// An empty authToken disables auth.
func testEnv(t *testing.T, authToken string, opts ...stash.Option) (*stashservice.Service, http.Handler, *testutil.Suggester) {
	t.Helper()
	store, _ := testutil.TestStore(t, opts...)
	sugg := &testutil.Suggester{Tags: []string{"finance", "tax"}}
	svc := stashservice.New(store, sugg, testutil.Logger())
	return svc, NewRouter(svc, authToken != "", authToken, nil), sugg
}

func do(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func createFolder(t *testing.T, router http.Handler, name string, parent *string) stashservice.FolderView {
	t.Helper()
	w := do(t, router, http.MethodPost, "/folders", map[string]any{"name": name, "parentId": parent})
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder %q = %d, body = %s", name, w.Code, w.Body.String())
	}
	return decode[stashservice.FolderView](t, w)
}

func createFile(t *testing.T, router http.Handler, body map[string]any) stashservice.FileView {
	t.Helper()
	w := do(t, router, http.MethodPost, "/files", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create file = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[stashservice.FileView](t, w)
}

func TestCreateAndListFolders(t *testing.T) {
	_, router, _ := testEnv(t, "")

	docs := createFolder(t, router, "Docs", nil)
	if !docs.IsOpen || docs.ParentID != nil {
		t.Errorf("new folder = %+v", docs)
	}
	receipts := createFolder(t, router, "Receipts", &docs.ID)

	w := do(t, router, http.MethodGet, "/folders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list root = %d", w.Code)
	}
	root := decode[stashservice.Listing](t, w)
	if root.Folder != nil || len(root.Folders) != 1 || root.Folders[0].ID != docs.ID {
		t.Errorf("root listing = %+v", root)
	}

	w = do(t, router, http.MethodGet, "/folders/"+docs.ID, nil)
	listing := decode[stashservice.Listing](t, w)
	if len(listing.Folders) != 1 || listing.Folders[0].ID != receipts.ID {
		t.Errorf("docs listing = %+v", listing)
	}

	w = do(t, router, http.MethodGet, "/folders/"+receipts.ID+"/path", nil)
	path := decode[struct {
		Path []stashservice.FolderView `json:"path"`
	}](t, w)
	if len(path.Path) != 2 || path.Path[0].Name != "Docs" || path.Path[1].Name != "Receipts" {
		t.Errorf("path = %+v", path.Path)
	}
}

func TestCreateFolderValidation(t *testing.T) {
	_, router, _ := testEnv(t, "")

	cases := []struct {
		name string
		body any
	}{
		{"empty name", map[string]any{"name": ""}},
		{"blank name", map[string]any{"name": "   "}},
		{"unknown parent", map[string]any{"name": "x", "parentId": "nope"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/folders", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body = %s", w.Code, w.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/folders", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", w.Code)
	}
}

func TestDeleteFolder(t *testing.T) {
	_, router, _ := testEnv(t, "")

	docs := createFolder(t, router, "Docs", nil)
	sub := createFolder(t, router, "Sub", &docs.ID)
	createFile(t, router, map[string]any{"name": "a", "type": "text", "content": "x", "folderId": sub.ID})

	w := do(t, router, http.MethodDelete, "/folders/"+docs.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodGet, "/folders/"+sub.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted subfolder = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodGet, "/files", nil)
	if files := decode[FileListResponse](t, w).Files; len(files) != 0 {
		t.Errorf("files after cascade = %+v", files)
	}

	w = do(t, router, http.MethodDelete, "/folders/"+docs.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestDeleteFolderWithLockedFile(t *testing.T) {
	_, router, _ := testEnv(t, "")

	docs := createFolder(t, router, "Docs", nil)
	createFile(t, router, map[string]any{
		"name": "secret", "type": "text", "content": "s", "folderId": docs.ID,
		"locked": true, "password": "pw",
	})

	w := do(t, router, http.MethodGet, "/folders/"+docs.ID+"/locked", nil)
	if !decode[LockedResponse](t, w).Locked {
		t.Error("locked = false, want true")
	}
	w = do(t, router, http.MethodDelete, "/folders/"+docs.ID, nil)
	if w.Code != http.StatusLocked {
		t.Errorf("delete = %d, want 423", w.Code)
	}
}

func TestToggleFolder(t *testing.T) {
	_, router, _ := testEnv(t, "")
	docs := createFolder(t, router, "Docs", nil)

	w := do(t, router, http.MethodPost, "/folders/"+docs.ID+"/toggle", nil)
	if w.Code != http.StatusOK || decode[stashservice.FolderView](t, w).IsOpen {
		t.Errorf("toggle = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodPost, "/folders/missing/toggle", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("toggle missing = %d, want 404", w.Code)
	}
}

func TestTreeEndpoint(t *testing.T) {
	_, router, _ := testEnv(t, "")
	docs := createFolder(t, router, "Docs", nil)
	createFolder(t, router, "Sub", &docs.ID)
	createFile(t, router, map[string]any{"name": "a", "type": "link", "content": "https://go.dev"})

	w := do(t, router, http.MethodGet, "/folders/tree", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("tree = %d", w.Code)
	}
	tree := decode[stashservice.Tree](t, w)
	if tree.RootFiles != 1 || len(tree.Folders) != 1 || len(tree.Folders[0].Children) != 1 {
		t.Errorf("tree = %+v", tree)
	}
}

func TestCurrentFolder(t *testing.T) {
	_, router, _ := testEnv(t, "")
	docs := createFolder(t, router, "Docs", nil)

	w := do(t, router, http.MethodGet, "/current", nil)
	if decode[CurrentFolderResponse](t, w).Folder != nil {
		t.Error("initial selection should be root")
	}

	w = do(t, router, http.MethodPut, "/current", map[string]any{"folderId": docs.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("set current = %d, body = %s", w.Code, w.Body.String())
	}
	createFile(t, router, map[string]any{"name": "here", "type": "text", "content": "c", "folderId": docs.ID})

	w = do(t, router, http.MethodGet, "/files?folder=current", nil)
	if files := decode[FileListResponse](t, w).Files; len(files) != 1 || files[0].Name != "here" {
		t.Errorf("current files = %+v", files)
	}

	w = do(t, router, http.MethodPut, "/current", map[string]any{"folderId": "missing"})
	if w.Code != http.StatusNotFound {
		t.Errorf("select missing = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodPut, "/current", map[string]any{"folderId": nil})
	if w.Code != http.StatusOK || decode[CurrentFolderResponse](t, w).Folder != nil {
		t.Errorf("select root = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestCreateAndGetFile(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/files", map[string]any{
		"name": "Tax 2024", "type": "text", "content": "refund", "tags": []string{"tax", " tax ", ""},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("ETag") == "" {
		t.Error("missing ETag")
	}
	created := decode[stashservice.FileView](t, w)
	if len(created.Tags) != 1 || created.Tags[0] != "tax" {
		t.Errorf("tags = %v", created.Tags)
	}

	w = do(t, router, http.MethodGet, "/files/"+created.ID, nil)
	got := decode[stashservice.FileView](t, w)
	if got.Content != "refund" || got.Revision != created.Revision {
		t.Errorf("get = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/files/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get missing = %d, want 404", w.Code)
	}
}

func TestCreateFileValidation(t *testing.T) {
	_, router, _ := testEnv(t, "")

	cases := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing name", map[string]any{"type": "text"}, http.StatusBadRequest},
		{"bad type", map[string]any{"name": "x", "type": "audio"}, http.StatusBadRequest},
		{"unknown folder", map[string]any{"name": "x", "type": "text", "folderId": "nope"}, http.StatusBadRequest},
		{"lock without password", map[string]any{"name": "x", "type": "text", "locked": true}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/files", tc.body)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestCreateFileLenientLock(t *testing.T) {
	_, router, _ := testEnv(t, "", stash.WithStrictLocks(false))

	f := createFile(t, router, map[string]any{"name": "x", "type": "text", "content": "c", "locked": true})
	if f.IsEncrypted {
		t.Error("lenient lock without password should store unlocked")
	}
}

func TestLockedFileFlow(t *testing.T) {
	_, router, _ := testEnv(t, "")

	f := createFile(t, router, map[string]any{
		"name": "diary", "type": "text", "content": "dear diary", "locked": true, "password": "pw",
	})
	if !f.IsEncrypted || f.Content != "" {
		t.Fatalf("locked create leaked content: %+v", f)
	}

	w := do(t, router, http.MethodPost, "/files/"+f.ID+"/reveal", map[string]any{})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("reveal without password = %d, want 401", w.Code)
	}
	w = do(t, router, http.MethodPost, "/files/"+f.ID+"/reveal", map[string]any{"password": "nope"})
	if w.Code != http.StatusForbidden {
		t.Errorf("reveal wrong password = %d, want 403", w.Code)
	}
	w = do(t, router, http.MethodPost, "/files/"+f.ID+"/reveal", map[string]any{"password": "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("reveal = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("revealed content must not be cached")
	}
	if v := decode[stashservice.FileView](t, w); v.Content != "dear diary" || !v.Revealed {
		t.Errorf("revealed = %+v", v)
	}

	w = do(t, router, http.MethodDelete, "/files/"+f.ID, nil)
	if w.Code != http.StatusLocked {
		t.Errorf("delete locked = %d, want 423", w.Code)
	}

	w = do(t, router, http.MethodPatch, "/files/"+f.ID, map[string]any{"content": "edited"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("edit locked without password = %d, want 401", w.Code)
	}

	w = do(t, router, http.MethodPatch, "/files/"+f.ID, map[string]any{"locked": false, "password": "pw"})
	if w.Code != http.StatusOK || decode[stashservice.FileView](t, w).IsEncrypted {
		t.Fatalf("unlock = %d, body = %s", w.Code, w.Body.String())
	}
	w = do(t, router, http.MethodDelete, "/files/"+f.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete unlocked = %d, want 204", w.Code)
	}
}

func TestLongPasswordIsCheckedInFull(t *testing.T) {
	_, router, _ := testEnv(t, "")

	password := strings.Repeat("é", 40)
	f := createFile(t, router, map[string]any{
		"name": "n", "type": "text", "content": "c", "locked": true, "password": password,
	})

	w := do(t, router, http.MethodPost, "/files/"+f.ID+"/reveal", map[string]any{"password": password[:72] + "x"})
	if w.Code != http.StatusForbidden {
		t.Errorf("reveal with shared prefix = %d, want 403", w.Code)
	}
	w = do(t, router, http.MethodPost, "/files/"+f.ID+"/reveal", map[string]any{"password": password})
	if w.Code != http.StatusOK {
		t.Errorf("reveal = %d, body = %s", w.Code, w.Body.String())
	}

	newPassword := strings.Repeat("z", 100)
	w = do(t, router, http.MethodPatch, "/files/"+f.ID, map[string]any{"newPassword": newPassword, "password": password})
	if w.Code != http.StatusOK {
		t.Errorf("change to long password = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestUpdateWithOptimisticLocking(t *testing.T) {
	_, router, _ := testEnv(t, "")
	f := createFile(t, router, map[string]any{"name": "n", "type": "text", "content": "v1"})

	w := do(t, router, http.MethodPatch, "/files/"+f.ID, map[string]any{"content": "v2"}, "If-Match", `"`+f.Revision+`"`)
	if w.Code != http.StatusOK {
		t.Fatalf("update with current revision = %d, body = %s", w.Code, w.Body.String())
	}
	if etag := w.Header().Get("ETag"); etag == `"`+f.Revision+`"` {
		t.Error("ETag did not change")
	}

	w = do(t, router, http.MethodPatch, "/files/"+f.ID, map[string]any{"content": "v3"}, "If-Match", f.Revision)
	if w.Code != http.StatusConflict {
		t.Errorf("update with stale revision = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodPatch, "/files/"+f.ID, map[string]any{"name": "renamed"})
	if w.Code != http.StatusOK || decode[stashservice.FileView](t, w).Name != "renamed" {
		t.Errorf("update without If-Match = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPatch, "/files/"+f.ID, map[string]any{"name": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty name = %d, want 400", w.Code)
	}
}

func TestListAndSearchFiles(t *testing.T) {
	_, router, _ := testEnv(t, "")
	docs := createFolder(t, router, "Docs", nil)
	createFile(t, router, map[string]any{"name": "Invoice", "type": "document", "folderId": docs.ID})
	createFile(t, router, map[string]any{"name": "Photo", "type": "image", "tags": []string{"Holiday"}})

	w := do(t, router, http.MethodGet, "/files?q=holi", nil)
	if files := decode[FileListResponse](t, w).Files; len(files) != 1 || files[0].Name != "Photo" {
		t.Errorf("search = %+v", files)
	}

	w = do(t, router, http.MethodGet, "/files?folder=root", nil)
	if files := decode[FileListResponse](t, w).Files; len(files) != 1 || files[0].Name != "Photo" {
		t.Errorf("root files = %+v", files)
	}

	w = do(t, router, http.MethodGet, "/files?folder="+docs.ID+"&q=inv", nil)
	files := decode[FileListResponse](t, w).Files
	if len(files) != 1 || files[0].Content == "" {
		t.Errorf("docs files = %+v", files)
	}

	w = do(t, router, http.MethodGet, "/files?folder=missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing folder = %d, want 404", w.Code)
	}
}

func TestTagsEndpoints(t *testing.T) {
	_, router, sugg := testEnv(t, "")
	f := createFile(t, router, map[string]any{"name": "n", "type": "text", "content": "tax refund", "tags": []string{"tax"}})

	w := do(t, router, http.MethodPut, "/files/"+f.ID+"/tags", map[string]any{"tags": []string{"a", "b", "a"}})
	if got := decode[stashservice.FileView](t, w).Tags; len(got) != 2 {
		t.Errorf("set tags = %v", got)
	}
	w = do(t, router, http.MethodPut, "/files/"+f.ID+"/tags", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing tags = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPost, "/files/"+f.ID+"/tags/suggest", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("suggest = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[SuggestResponse](t, w)
	if len(resp.Suggested) != 2 || len(resp.File.Tags) != 4 {
		t.Errorf("suggest = %+v", resp)
	}

	img := createFile(t, router, map[string]any{"name": "p", "type": "image"})
	w = do(t, router, http.MethodPost, "/files/"+img.ID+"/tags/suggest", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("suggest on image = %d, want 422", w.Code)
	}

	sugg.Err = errors.New("quota exceeded")
	w = do(t, router, http.MethodPost, "/files/"+f.ID+"/tags/suggest", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("suggest upstream failure = %d, want 502", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/folders", nil, "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/folders", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/folders", nil, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/folders", nil, "Authorization", "Bearer anything")
	if w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", w.Code)
	}
}

// testEnvWithSSE creates a router with a stub SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	store, _ := testutil.TestStore(t)
	svc := stashservice.New(store, nil, testutil.Logger())

	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
	return NewRouter(svc, authEnabled, token, sseHandler)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}
