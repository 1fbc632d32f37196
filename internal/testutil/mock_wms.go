// Package testutil provides testing utilities for the WMS client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// Mock endpoint paths, mirroring the production URLs.
const (
	TokenPath     = "/totvs.rac/connect/token"
	AddressesPath = "/wms/query/api/v1/enderecos"
)

// MockResponse defines a canned response.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockPage defines the listing response for one page number.
// A non-zero StatusCode other than 200 returns that status with no body.
type MockPage struct {
	Items      []map[string]any
	HasNext    bool
	StatusCode int
	// Raw, when set, is written verbatim instead of Items/HasNext.
	Raw string
}

// MockWMS is a configurable mock WMS (token + address listing) for testing.
type MockWMS struct {
	server *httptest.Server
	mu     sync.RWMutex

	token MockResponse
	pages map[int]MockPage

	// Tracking
	tokenRequests     int
	listRequests      int
	requestedPages    []int
	lastAuthorization string
	lastUnitID        string
	lastPageSize      string
	lastTokenForm     map[string]string
}

// NewMockWMS creates a mock WMS issuing the token "test-token" and
// returning empty listings until pages are configured.
func NewMockWMS() *MockWMS {
	mock := &MockWMS{
		token: NewTokenResponse("test-token"),
		pages: make(map[int]MockPage),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(TokenPath, mock.handleToken)
	mux.HandleFunc(AddressesPath, mock.handleAddresses)
	mock.server = httptest.NewServer(mux)

	return mock
}

// URL returns the mock server URL.
func (m *MockWMS) URL() string {
	return m.server.URL
}

// TokenURL returns the mock token endpoint.
func (m *MockWMS) TokenURL() string {
	return m.server.URL + TokenPath
}

// AddressesURL returns the mock listing endpoint.
func (m *MockWMS) AddressesURL() string {
	return m.server.URL + AddressesPath
}

// Close shuts down the mock server.
func (m *MockWMS) Close() {
	m.server.Close()
}

// SetTokenResponse configures the token endpoint response.
func (m *MockWMS) SetTokenResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = resp
}

// SetPage configures the response for page number n.
func (m *MockWMS) SetPage(n int, page MockPage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[n] = page
}

// SetPages configures pages 1..len(pages).
func (m *MockWMS) SetPages(pages ...MockPage) {
	for i, p := range pages {
		m.SetPage(i+1, p)
	}
}

// Reset clears all tracking counters.
func (m *MockWMS) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenRequests = 0
	m.listRequests = 0
	m.requestedPages = nil
	m.lastAuthorization = ""
	m.lastUnitID = ""
	m.lastPageSize = ""
	m.lastTokenForm = nil
}

// TokenRequests returns the number of token requests received.
func (m *MockWMS) TokenRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokenRequests
}

// ListRequests returns the number of listing requests received.
func (m *MockWMS) ListRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRequests
}

// RequestedPages returns the page numbers requested, in order.
func (m *MockWMS) RequestedPages() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.requestedPages...)
}

// LastAuthorization returns the Authorization header of the last listing request.
func (m *MockWMS) LastAuthorization() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAuthorization
}

// LastUnitID returns the unidadeId of the last listing request.
func (m *MockWMS) LastUnitID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastUnitID
}

// LastPageSize returns the pageSize of the last listing request.
func (m *MockWMS) LastPageSize() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastPageSize
}

// LastTokenForm returns the form fields of the last token request.
func (m *MockWMS) LastTokenForm() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastTokenForm
}

func (m *MockWMS) handleToken(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}

	m.mu.Lock()
	m.tokenRequests++
	m.lastTokenForm = form
	resp := m.token
	m.mu.Unlock()

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

func (m *MockWMS) handleAddresses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pageNum, _ := strconv.Atoi(q.Get("page"))

	m.mu.Lock()
	m.listRequests++
	m.requestedPages = append(m.requestedPages, pageNum)
	m.lastAuthorization = r.Header.Get("Authorization")
	m.lastUnitID = q.Get("unidadeId")
	m.lastPageSize = q.Get("pageSize")
	page, ok := m.pages[pageNum]
	m.mu.Unlock()

	if !ok {
		page = MockPage{}
	}

	if page.StatusCode != 0 && page.StatusCode != http.StatusOK {
		w.WriteHeader(page.StatusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if page.Raw != "" {
		_, _ = w.Write([]byte(page.Raw))
		return
	}

	items := page.Items
	if items == nil {
		items = []map[string]any{}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"items":   items,
		"hasNext": page.HasNext,
	})
}

// NewTokenResponse creates a 200 OK token response.
func NewTokenResponse(token string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer","expires_in":3600}`, token),
	}
}

// NewForbiddenResponse creates a 403 Forbidden token response.
func NewForbiddenResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"error":"invalid_client"}`,
	}
}

// GenerateItems builds n raw address items with ids "<prefix>-<i>".
func GenerateItems(prefix string, n int) []map[string]any {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{
			"id":           fmt.Sprintf("%s-%d", prefix, i),
			"descricao":    fmt.Sprintf("RUA %s %d", prefix, i),
			"codigoBarras": fmt.Sprintf("789%06d", i),
			"situacao":     "ATIVO",
			"deposito": map[string]any{
				"id":        "dep-1",
				"descricao": "Depósito Geral",
			},
		}
	}
	return items
}
