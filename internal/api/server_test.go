package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gmsas95/dealintake/internal/artifact"
	"github.com/gmsas95/dealintake/internal/checklist"
	"github.com/gmsas95/dealintake/internal/config"
	"github.com/gmsas95/dealintake/internal/store"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	s, err := store.NewWithDB(db)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.ReadTimeout = 5
	cfg.Server.WriteTimeout = 5
	cfg.Security.JWTSecret = testSecret
	cfg.Security.AllowOrigins = []string{"*"}

	logger, _ := zap.NewDevelopment()
	queue := artifact.NewQueue(s, logger)
	reconciler := checklist.NewReconciler(s, logger)

	return New(cfg, s, queue, reconciler, logger), s
}

func authToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "test",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestHealth_Public(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, srv, "GET", "/api/health", "", nil)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestProtected_RequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, srv, "POST", "/api/deals", "", map[string]string{"bank_id": "b1"})
	assert.Equal(t, 401, resp.StatusCode)
}

func TestLogin_IssuesUsableToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, "POST", "/api/auth/login", "", map[string]string{"client_id": "portal"})
	require.Equal(t, 200, resp.StatusCode)
	var body struct {
		Token string `json:"token"`
	}
	decode(t, resp, &body)
	require.NotEmpty(t, body.Token)

	resp = doJSON(t, srv, "POST", "/api/deals", body.Token, map[string]string{"bank_id": "b1"})
	assert.Equal(t, 201, resp.StatusCode)
}

func TestCreateDeal_SeedsChecklist(t *testing.T) {
	srv, s := newTestServer(t)
	token := authToken(t)

	resp := doJSON(t, srv, "POST", "/api/deals", token, map[string]string{
		"bank_id": "bank-1", "borrower_name": "Mill Creek LLC",
	})
	require.Equal(t, 201, resp.StatusCode)
	var deal store.Deal
	decode(t, resp, &deal)
	require.NotEmpty(t, deal.ID)

	items, err := s.GetChecklistItems(deal.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, items)
}

func TestEnqueue_Idempotent(t *testing.T) {
	srv, s := newTestServer(t)
	token := authToken(t)

	deal := &store.Deal{BankID: "bank-1"}
	require.NoError(t, s.CreateDeal(deal))

	body := map[string]string{
		"deal_id": deal.ID, "bank_id": "bank-1",
		"source_table": "uploads", "source_id": "u-1", "filename": "1065.pdf",
	}

	resp := doJSON(t, srv, "POST", "/api/artifacts", token, body)
	require.Equal(t, 201, resp.StatusCode)
	var first struct {
		ArtifactID    string `json:"artifact_id"`
		AlreadyQueued bool   `json:"already_queued"`
	}
	decode(t, resp, &first)
	assert.False(t, first.AlreadyQueued)

	resp = doJSON(t, srv, "POST", "/api/artifacts", token, body)
	require.Equal(t, 200, resp.StatusCode)
	var second struct {
		ArtifactID    string `json:"artifact_id"`
		AlreadyQueued bool   `json:"already_queued"`
	}
	decode(t, resp, &second)
	assert.True(t, second.AlreadyQueued)
	assert.Equal(t, first.ArtifactID, second.ArtifactID)
}

func TestEnqueue_UnknownDeal(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, srv, "POST", "/api/artifacts", authToken(t), map[string]string{
		"deal_id": "nope", "source_table": "uploads", "source_id": "u-1",
	})
	assert.Equal(t, 404, resp.StatusCode)
}

func TestManualOverride(t *testing.T) {
	srv, s := newTestServer(t)
	token := authToken(t)

	deal := &store.Deal{BankID: "bank-1"}
	require.NoError(t, s.CreateDeal(deal))
	require.NoError(t, checklist.Seed(s, deal.ID))
	doc := &store.Document{DealID: deal.ID, SourceTable: "uploads", SourceID: "u-1", Filename: "scan.pdf"}
	require.NoError(t, s.CreateDocument(doc))
	require.NoError(t, s.UpsertFact(&store.Fact{DealID: deal.ID, DocumentID: doc.ID, Key: "NET_INCOME", Value: 1}))

	resp := doJSON(t, srv, "POST", "/api/documents/"+doc.ID+"/override", token, map[string]interface{}{
		"doc_type": "IRS_BUSINESS", "tax_year": 2024,
	})
	require.Equal(t, 200, resp.StatusCode)

	got, err := s.GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "IRS_BUSINESS", got.DocType)
	assert.Equal(t, store.MatchSourceManual, got.MatchSource)
	assert.Equal(t, "IRS_BUSINESS_2024", got.ChecklistKey)
	assert.InDelta(t, 1.0, got.DocTypeConfidence, 0.001)

	// Stale automated facts were cleared, and the checklist picked up the
	// manually matched slot.
	facts, err := s.GetFacts(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, facts)

	item, err := s.GetChecklistItem(deal.ID, "IRS_BUSINESS_2024")
	require.NoError(t, err)
	assert.Equal(t, store.ChecklistReceived, item.Status)
}

func TestReadinessEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	token := authToken(t)

	deal := &store.Deal{BankID: "bank-1"}
	require.NoError(t, s.CreateDeal(deal))
	require.NoError(t, s.UpsertChecklistItem(&store.ChecklistItem{
		DealID: deal.ID, Key: "PFS_CURRENT", Required: true, Status: store.ChecklistMissing,
	}))

	resp := doJSON(t, srv, "GET", "/api/deals/"+deal.ID+"/readiness", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var body struct {
		Ready     bool     `json:"ready"`
		OpenItems []string `json:"open_items"`
	}
	decode(t, resp, &body)
	assert.False(t, body.Ready)
	assert.Contains(t, body.OpenItems, "PFS_CURRENT")
}
