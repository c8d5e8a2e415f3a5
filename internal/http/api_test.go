package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"travel-tracker/internal/auth"
	"travel-tracker/internal/countries"
	"travel-tracker/internal/repository/sqlite"
	"travel-tracker/internal/service"
	"travel-tracker/internal/storage"
)

const chileCatalogJSON = `[{
	"name": {"common": "Chile", "official": "Republic of Chile"},
	"cca2": "CL", "region": "Americas", "subregion": "South America",
	"capital": ["Santiago"], "capitalInfo": {"latlng": [-33.45, -70.67]},
	"population": 19116209,
	"flags": {"png": "https://flagcdn.com/w320/cl.png", "svg": "https://flagcdn.com/cl.svg"},
	"currencies": {"CLP": {"name": "Chilean peso", "symbol": "$"}},
	"languages": {"spa": "Spanish"},
	"maps": {"googleMaps": "https://goo.gl/maps/XboxyNHh2fAjCPNn9", "openStreetMaps": "https://www.openstreetmap.org/relation/167454"},
	"continents": ["South America"]
}]`

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string]int64
	failDel bool
}

func (m *memoryStorage) PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error) {
	n, err := io.Copy(io.Discard, body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = n
	return "s3://" + bucket + "/" + key, nil
}

func (m *memoryStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, size := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: size})
		}
	}
	return out, nil
}

func (m *memoryStorage) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	if m.failDel {
		return errors.New("access denied")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
		}
	}
	return nil
}

func (m *memoryStorage) GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

type testServer struct {
	router  *gin.Engine
	tokens  *auth.TokenManager
	store   *memoryStorage
	metrics *Metrics
}

func newTestServer(t *testing.T, withExports bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "travel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	users := sqlite.NewUserRepository(db)
	countryRepo := sqlite.NewCountryRepository(db)
	require.NoError(t, users.Init(context.Background()))
	require.NoError(t, countryRepo.Init(context.Background()))

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/name/chile":
			_, _ = w.Write([]byte(chileCatalogJSON))
		case r.URL.Path == "/all", r.URL.Path == "/region/americas":
			_, _ = w.Write([]byte(chileCatalogJSON))
		case r.URL.Path == "/region/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	tokens, err := auth.NewTokenManager("handler-test-secret", time.Hour)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	countrySvc := service.NewCountryService(countryRepo)
	ts := &testServer{
		tokens:  tokens,
		store:   &memoryStorage{objects: map[string]int64{}},
		metrics: NewMetrics("travel_test"),
	}
	opts := Options{
		Users:     service.NewUserService(users, auth.NewBcryptHasher(bcrypt.MinCost), tokens),
		Countries: countrySvc,
		Catalog:   service.NewCatalogService(countries.NewClient(upstream.URL, time.Second), countrySvc),
		Tokens:    tokens,
		Metrics:   ts.metrics,
		Logger:    logger,
	}
	if withExports {
		opts.Exports = service.NewExportService(countryRepo, ts.store, service.ExportConfig{Bucket: "bucket", KeyPrefix: "exports"})
	}

	ts.router = gin.New()
	NewHandler(opts).RegisterRoutes(ts.router)
	return ts
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func registration(email string) map[string]any {
	return map[string]any{
		"email":         email,
		"nome_completo": "A",
		"endereco":      "Rua 1",
		"estado":        "SP",
		"cidade":        "Campinas",
		"numero":        "10",
		"cep":           "13000-000",
		"senha":         "secret1",
	}
}

func chileCountry() map[string]any {
	return map[string]any{
		"nome_comum":      "Chile",
		"nome_oficial":    "Republic of Chile",
		"regiao":          "Americas",
		"moeda":           "Chilean peso",
		"capital":         "Santiago",
		"continente":      "South America",
		"link_png":        "https://flagcdn.com/w320/cl.png",
		"link_googlemaps": "https://goo.gl/maps/XboxyNHh2fAjCPNn9",
		"populacao":       19116209,
		"official_name":   "Republic of Chile",
	}
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	rec, _ := s.do(t, http.MethodPost, "/api/usuarios", "", registration(email))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, body := s.do(t, http.MethodPost, "/api/usuarios/login", "", map[string]any{"email": email, "senha": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	return body["token"].(string)
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t, false)

	rec, body := s.do(t, http.MethodPost, "/api/usuarios", "", registration("a@x.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, body, "senha")
	assert.NotContains(t, rec.Body.String(), "$2a$")
	assert.Equal(t, "a@x.com", body["email"])

	rec, body = s.do(t, http.MethodPost, "/api/usuarios/login", "", map[string]any{"email": "a@x.com", "senha": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login realizado com sucesso", body["message"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	rec, body = s.do(t, http.MethodPost, "/api/usuarios/login", "", map[string]any{"email": "a@x.com", "senha": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Credenciais inválidas", body["error"])

	rec, body = s.do(t, http.MethodGet, "/api/usuarios", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token não fornecido", body["error"])

	rec, body = s.do(t, http.MethodGet, "/api/usuarios", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A", body["nome_completo"])

	rec, body = s.do(t, http.MethodPut, "/api/usuarios", token, map[string]any{"cidade": "Santos"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Santos", body["cidade"])
	assert.Equal(t, "Rua 1", body["endereco"])

	rec, body = s.do(t, http.MethodDelete, "/api/usuarios", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Usuário deletado com sucesso", body["message"])

	// the token outlives the account
	rec, body = s.do(t, http.MethodGet, "/api/usuarios", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Usuário não encontrado", body["error"])
}

func TestDeletedAccountCannotAddCountries(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login(t, "a@x.com")

	rec, _ := s.do(t, http.MethodDelete, "/api/usuarios", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := s.do(t, http.MethodPost, "/api/paises", token, chileCountry())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Usuário não encontrado", body["error"])

	rec, body = s.do(t, http.MethodPost, "/api/rest-countries/save/chile", token, map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Usuário não encontrado", body["error"])

	rec, body = s.do(t, http.MethodPut, "/api/usuarios", token, map[string]any{"cidade": "Santos"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Usuário não encontrado", body["error"])
}

func TestRegisterFailures(t *testing.T) {
	s := newTestServer(t, false)
	s.login(t, "a@x.com")

	rec, body := s.do(t, http.MethodPost, "/api/usuarios", "", registration("a@x.com"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email já cadastrado", body["error"])

	partial := registration("b@x.com")
	delete(partial, "cep")
	rec, body = s.do(t, http.MethodPost, "/api/usuarios", "", partial)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Todos os campos são obrigatórios", body["error"])

	rec, body = s.do(t, http.MethodPost, "/api/usuarios", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Todos os campos são obrigatórios", body["error"])

	long := registration("c@x.com")
	long["senha"] = strings.Repeat("x", 80)
	rec, body = s.do(t, http.MethodPost, "/api/usuarios", "", long)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A senha deve ter no máximo 72 bytes", body["error"])

	token := s.login(t, "d@x.com")
	rec, body = s.do(t, http.MethodPut, "/api/usuarios", token, map[string]any{"senha": strings.Repeat("x", 80)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A senha deve ter no máximo 72 bytes", body["error"])

	req := httptest.NewRequest(http.MethodPost, "/api/usuarios", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	s.router.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestLoginDoesNotRevealWhichCredentialFailed(t *testing.T) {
	s := newTestServer(t, false)
	s.login(t, "a@x.com")

	unknown, _ := s.do(t, http.MethodPost, "/api/usuarios/login", "", map[string]any{"email": "nobody@x.com", "senha": "secret1"})
	wrong, _ := s.do(t, http.MethodPost, "/api/usuarios/login", "", map[string]any{"email": "a@x.com", "senha": "nope"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, unknown.Code, wrong.Code)
	assert.JSONEq(t, unknown.Body.String(), wrong.Body.String())

	rec, body := s.do(t, http.MethodPost, "/api/usuarios/login", "", map[string]any{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email e senha são obrigatórios", body["error"])
}

func TestSessionRejections(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login(t, "a@x.com")

	expired, err := s.tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).Issue(auth.Identity{UserID: 1, Email: "a@x.com", Name: "A"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no scheme", token, "Token não fornecido"},
		{"scheme only", "Bearer ", "Token não fornecido"},
		{"garbage", "Bearer abc.def.ghi", "Token inválido"},
		{"tampered", "Bearer " + token + "x", "Token inválido"},
		{"expired", "Bearer " + expired, "Token inválido"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/paises", nil)
			req.Header.Set("Authorization", tt.header)
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, rec.Body.String())
		})
	}
}

func TestCountriesAreScopedToTheSession(t *testing.T) {
	s := newTestServer(t, false)
	owner := s.login(t, "a@x.com")
	other := s.login(t, "b@x.com")

	rec, body := s.do(t, http.MethodPost, "/api/paises", owner, chileCountry())
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, false, body["visited"])
	path := "/api/paises/" + jsonID(body)

	rec, body = s.do(t, http.MethodPost, "/api/paises", owner, map[string]any{"nome_comum": "Peru"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Todos os campos obrigatórios devem ser preenchidos", body["error"])

	rec, body = s.do(t, http.MethodGet, path, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "País não encontrado ou não pertence ao usuário", body["error"])

	rec, _ = s.do(t, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = s.do(t, http.MethodPut, path, owner, map[string]any{"visited": true, "observacoes": "Atacama"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["visited"])
	assert.Equal(t, "Santiago", body["capital"])
	assert.Equal(t, "Atacama", body["observacoes"])

	listRec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/paises", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	s.router.ServeHTTP(listRec, req)
	assert.JSONEq(t, `[]`, listRec.Body.String())

	rec, _ = s.do(t, http.MethodGet, "/api/paises/abc", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodDelete, path, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "País deletado com sucesso", body["message"])
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login(t, "a@x.com")

	rec, body := s.do(t, http.MethodGet, "/api/rest-countries/all", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["total"])

	rec, body = s.do(t, http.MethodGet, "/api/rest-countries/details/chile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Santiago", data["capital"])

	rec, body = s.do(t, http.MethodGet, "/api/rest-countries/name/atlantis", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "País não encontrado", body["error"])

	rec, _ = s.do(t, http.MethodGet, "/api/rest-countries/region/broken", token, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/rest-countries/search?region=americas&subregion=south&limit=abc", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])
	filters := body["filters"].(map[string]any)
	assert.Equal(t, "americas", filters["region"])
	assert.Equal(t, "abc", filters["limit"])

	rec, body = s.do(t, http.MethodPost, "/api/rest-countries/save/chile", token, map[string]any{"observacoes": " quero ir "})
	require.Equal(t, http.StatusCreated, rec.Code)
	saved := body["data"].(map[string]any)["saved_country"].(map[string]any)
	assert.Equal(t, "Chile", saved["nome_comum"])
	assert.Equal(t, "quero ir", saved["observacoes"])

	rec, _ = s.do(t, http.MethodGet, "/api/rest-countries/all", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExportRoutes(t *testing.T) {
	s := newTestServer(t, true)
	token := s.login(t, "a@x.com")

	rec, body := s.do(t, http.MethodPost, "/api/paises/export", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	key, _ := body["key"].(string)
	assert.True(t, strings.HasPrefix(key, "exports/user-"))
	assert.Equal(t, "https://signed.example/"+key, body["url"])
	assert.EqualValues(t, 0, body["total"])

	listRec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/paises/exports", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	s.router.ServeHTTP(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)
	var objects []StorageObjectResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &objects))
	require.Len(t, objects, 1)
	assert.Equal(t, key, objects[0].Key)

	s.store.failDel = true
	rec, body = s.do(t, http.MethodDelete, "/api/usuarios", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Falha ao remover exportações"}, body["warnings"])
	assert.NotContains(t, rec.Body.String(), "access denied")
	assert.NotContains(t, rec.Body.String(), "purge exports")
}

func TestExportRoutesDisabledWithoutStorage(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login(t, "a@x.com")

	rec, body := s.do(t, http.MethodPost, "/api/paises/export", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Rota não encontrada", body["error"])
}

func TestInfoMetricsAndFallback(t *testing.T) {
	s := newTestServer(t, false)

	rec, body := s.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "API Fullstack funcionando!", body["message"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, body = s.do(t, http.MethodGet, "/api/nada", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Rota não encontrada", body["error"])

	rec, _ = s.do(t, http.MethodOptions, "/api/usuarios", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	s.do(t, http.MethodPost, "/api/usuarios/login", "", map[string]any{"email": "x@x.com", "senha": "y"})

	metrics := httptest.NewRecorder()
	s.router.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metrics.Code)
	text := metrics.Body.String()
	assert.Contains(t, text, `travel_test_http_requests_total{method="GET",route="/",status="200"} 1`)
	assert.Contains(t, text, `travel_test_login_attempts_total{outcome="unauthorized"} 1`)
}

func jsonID(body map[string]any) string {
	id, _ := body["id"].(float64)
	return strconv.FormatInt(int64(id), 10)
}
