package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lunaris-labs/basket/internal/model"
	"github.com/lunaris-labs/basket/internal/recommend"
	"github.com/lunaris-labs/basket/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	db := testutil.SetupTestDB(t)
	db.MustSave([]model.Transaction{
		testutil.Line("1", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", 12),
		testutil.Line("1", "71053", "WHITE METAL LANTERN", 6),
		testutil.Line("2", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", 4),
		testutil.LineIn("3", "22423", "REGENCY CAKESTAND 3 TIER", 8, "France"),
	})

	rules := []model.Rule{
		{Antecedent: []string{"85123A"}, Consequent: []string{"71053"}, Support: 0.5, Confidence: 0.5, Lift: 1.0},
	}
	globalPop := []model.ProductRank{
		{StockCode: "85123A", Description: "WHITE HANGING HEART T-LIGHT HOLDER", Quantity: 16},
		{StockCode: "22423", Description: "REGENCY CAKESTAND 3 TIER", Quantity: 8},
		{StockCode: "71053", Description: "WHITE METAL LANTERN", Quantity: 6},
	}
	products := []model.Product{
		{StockCode: "22423", Description: "REGENCY CAKESTAND 3 TIER"},
		{StockCode: "71053", Description: "WHITE METAL LANTERN"},
		{StockCode: "85123A", Description: "WHITE HANGING HEART T-LIGHT HOLDER"},
	}

	server, err := NewServer(Config{
		Store:       db.Storage,
		Recommender: recommend.New(rules, globalPop, nil, products),
		Products:    products,
		Countries:   []string{"France", "United Kingdom"},
		TopProducts: globalPop,
	})
	require.NoError(t, err)
	return server
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewServer_MissingConfig(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	server := testServer(t)

	rec := get(t, server, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WHITE HANGING HEART T-LIGHT HOLDER")
}

func TestIndex_WithProduct(t *testing.T) {
	server := testServer(t)

	// Lowercase input is accepted.
	rec := get(t, server, "/?product=85123a")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "WHITE METAL LANTERN", "rule consequent shows up as a suggestion")
}

func TestIndex_UnknownProduct(t *testing.T) {
	server := testServer(t)

	rec := get(t, server, "/?product=NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown product NOPE")
}

func TestIndex_BadTop(t *testing.T) {
	server := testServer(t)

	for _, top := range []string{"0", "-3", "101", "ten"} {
		rec := get(t, server, "/?top="+top)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "top=%s", top)
	}
}

func TestAPIPopular(t *testing.T) {
	server := testServer(t)

	rec := get(t, server, "/api/popular?top=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var popular []model.ProductRank
	require.NoError(t, json.Unmarshal(decode(t, rec)["popular"], &popular))
	require.Len(t, popular, 2)
	assert.Equal(t, "85123A", popular[0].StockCode)
}

func TestAPIPopular_CountryFilter(t *testing.T) {
	server := testServer(t)

	rec := get(t, server, "/api/popular?country=France")
	require.Equal(t, http.StatusOK, rec.Code)

	var popular []model.ProductRank
	require.NoError(t, json.Unmarshal(decode(t, rec)["popular"], &popular))
	require.Len(t, popular, 1)
	assert.Equal(t, "22423", popular[0].StockCode)
}

func TestAPIPopular_BadTop(t *testing.T) {
	server := testServer(t)

	rec := get(t, server, "/api/popular?top=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIRecommend(t *testing.T) {
	server := testServer(t)

	rec := get(t, server, "/api/recommend?product=85123A")
	require.Equal(t, http.StatusOK, rec.Code)

	var suggestions []recommend.Suggestion
	require.NoError(t, json.Unmarshal(decode(t, rec)["suggestions"], &suggestions))
	require.NotEmpty(t, suggestions)
	for _, s := range suggestions {
		assert.NotEqual(t, "85123A", s.StockCode, "the selected product is never suggested back")
	}
}

func TestAPIRecommend_UnknownItem(t *testing.T) {
	server := testServer(t)

	rec := get(t, server, "/api/recommend?items=85123A,NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIRecommend_EmptyBasket(t *testing.T) {
	server := testServer(t)

	rec := get(t, server, "/api/recommend?top=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var suggestions []recommend.Suggestion
	require.NoError(t, json.Unmarshal(decode(t, rec)["suggestions"], &suggestions))
	assert.Len(t, suggestions, 2, "empty basket answers with cold-start popularity")
}

func TestAPIProducts(t *testing.T) {
	server := testServer(t)

	rec := get(t, server, "/api/products?q=white")
	require.Equal(t, http.StatusOK, rec.Code)

	var products []model.Product
	require.NoError(t, json.Unmarshal(decode(t, rec)["products"], &products))
	assert.Len(t, products, 2)

	rec = get(t, server, "/api/products")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec)["products"], &products))
	assert.Empty(t, products, "blank query returns an empty list")
}

func TestAPICountries(t *testing.T) {
	server := testServer(t)

	rec := get(t, server, "/api/countries")
	require.Equal(t, http.StatusOK, rec.Code)

	var countries []string
	require.NoError(t, json.Unmarshal(decode(t, rec)["countries"], &countries))
	assert.Equal(t, []string{"France", "United Kingdom"}, countries)
}
