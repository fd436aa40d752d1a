package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qkhacks/controller/internal/access"
	"github.com/qkhacks/controller/internal/auth"
	"github.com/qkhacks/controller/internal/service"
	"github.com/qkhacks/controller/internal/store/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	issuer, err := auth.NewTokenIssuer([]byte("test-signing-key-at-least-32-bytes!!"), time.Hour)
	require.NoError(t, err)

	orgStore := memory.NewOrganizationStore()
	userStore := memory.NewUserStore()
	projectStore := memory.NewProjectStore()
	regionStore := memory.NewRegionStore()
	engine := access.NewEngine(memory.NewAccessStore())

	router := NewRouter(RouterOptions{
		Logger:        zerolog.Nop(),
		TokenIssuer:   issuer,
		Organizations: service.NewOrganizationService(orgStore),
		Users:         service.NewUserService(userStore, orgStore, issuer),
		Projects:      service.NewProjectService(projectStore, userStore, engine),
		Regions:       service.NewRegionService(regionStore, engine),
		DataCenters:   service.NewDataCenterService(memory.NewDataCenterStore(), regionStore, engine),
		MachineKeys:   service.NewMachineKeyService(memory.NewMachineKeyStore(), engine),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reqBody)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}

	return resp, decoded
}

func (ts *testServer) doList(t *testing.T, path, token string) (*http.Response, []any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp, decoded
}

func (ts *testServer) signUpAndToken(t *testing.T, username, orgName string) string {
	t.Helper()

	resp, _ := ts.do(t, http.MethodPost, "/api/v1/users/signup", "", map[string]any{
		"username": username, "password": "secret1234", "organization_name": orgName,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/api/v1/users/token", "", map[string]any{
		"username": username, "password": "secret1234", "organization_name": orgName,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token, ok := body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	return token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, false, body["success"])
	})

	t.Run("garbage token", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/api/v1/users/me", "not-a-token", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		token := ts.signUpAndToken(t, "alice", "acme")

		resp, body := ts.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "alice", body["username"])
		require.Equal(t, true, body["admin"])

		// the password hash never appears in responses
		_, present := body["password_hash"]
		require.False(t, present)
	})
}

func TestGetOrganization(t *testing.T) {
	ts := newTestServer(t)

	t.Run("requires authentication", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/api/v1/organization", "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("returns the caller's organization", func(t *testing.T) {
		token := ts.signUpAndToken(t, "alice", "acme")

		resp, body := ts.do(t, http.MethodGet, "/api/v1/organization", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "acme", body["name"])
		require.NotEmpty(t, body["id"])
	})
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndToken(t, "alice", "acme")

	t.Run("conflict is 409", func(t *testing.T) {
		resp, body := ts.do(t, http.MethodPost, "/api/v1/users/signup", "", map[string]any{
			"username": "bob", "password": "secret1234", "organization_name": "acme",
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		require.Equal(t, false, body["success"])
		require.NotEmpty(t, body["message"])
	})

	t.Run("bad credentials are 400", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodPost, "/api/v1/users/token", "", map[string]any{
			"username": "alice", "password": "wrong", "organization_name": "acme",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown project is 404", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/api/v1/projects/0198c0fc-7d46-7bd0-b160-000000000000", token, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed uuid is 400", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodGet, "/api/v1/projects/not-a-uuid", token, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing body is 400", func(t *testing.T) {
		resp, _ := ts.do(t, http.MethodPost, "/api/v1/projects", token, nil)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestProjectFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndToken(t, "alice", "acme")

	resp, project := ts.do(t, http.MethodPost, "/api/v1/projects", token, map[string]any{"name": "apollo"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	projectID := project["id"].(string)

	t.Run("creator sees the project with the wildcard", func(t *testing.T) {
		resp, list := ts.doList(t, "/api/v1/projects", token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, list, 1)

		entry := list[0].(map[string]any)
		require.Equal(t, []any{"all"}, entry["permissions"])
		require.Equal(t, projectID, entry["project"].(map[string]any)["id"])
	})

	t.Run("grant and revoke access", func(t *testing.T) {
		resp, added := ts.do(t, http.MethodPost, "/api/v1/users", token, map[string]any{"username": "bob", "admin": false})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		bobID := added["id"].(string)
		bobPassword := added["password"].(string)

		resp, bobToken := ts.do(t, http.MethodPost, "/api/v1/users/token", "", map[string]any{
			"username": "bob", "password": bobPassword, "organization_name": "acme",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		// bob has no access yet
		resp, _ = ts.do(t, http.MethodGet, "/api/v1/projects/"+projectID, bobToken["token"].(string), nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%s/users/%s/access", projectID, bobID), token,
			map[string]any{"permissions": []string{"infra.region.admin"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = ts.do(t, http.MethodGet, "/api/v1/projects/"+projectID, bobToken["token"].(string), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		// bob holds region admin but not the wildcard
		resp, _ = ts.do(t, http.MethodPut, "/api/v1/projects/"+projectID, bobToken["token"].(string), map[string]any{"name": "artemis"})
		require.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/projects/%s/users/%s", projectID, bobID), token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = ts.do(t, http.MethodGet, "/api/v1/projects/"+projectID, bobToken["token"].(string), nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRegionFlowAndPagination(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndToken(t, "alice", "acme")

	_, project := ts.do(t, http.MethodPost, "/api/v1/projects", token, map[string]any{"name": "apollo"})
	projectID := project["id"].(string)
	base := "/api/v1/projects/" + projectID + "/infra/regions"

	for i := range 5 {
		resp, _ := ts.do(t, http.MethodPost, base, token, map[string]any{"name": fmt.Sprintf("region-%d", i)})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	t.Run("default page returns everything", func(t *testing.T) {
		resp, list := ts.doList(t, base, token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, list, 5)
	})

	t.Run("page and size are honored", func(t *testing.T) {
		resp, list := ts.doList(t, base+"?page=1&size=2", token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, list, 2)
		require.Equal(t, "region-2", list[0].(map[string]any)["name"])

		resp, list = ts.doList(t, base+"?page=2&size=2", token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, list, 1)
	})
}

func TestMachineKeySecretOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndToken(t, "alice", "acme")

	_, project := ts.do(t, http.MethodPost, "/api/v1/projects", token, map[string]any{"name": "apollo"})
	projectID := project["id"].(string)
	base := "/api/v1/projects/" + projectID + "/infra/machine-keys"

	resp, key := ts.do(t, http.MethodPost, base, token, map[string]any{"name": "deploy"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	keyID := key["id"].(string)

	// the secret never rides along with metadata
	_, present := key["key"]
	require.False(t, present)

	resp, meta := ts.do(t, http.MethodGet, base+"/"+keyID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, present = meta["key"]
	require.False(t, present)

	resp, secret := ts.do(t, http.MethodGet, base+"/"+keyID+"/key", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, secret["key"])
}
