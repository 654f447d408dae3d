// Package web serves the interactive recommendation form and its JSON API.
package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lunaris-labs/basket/internal/common"
	"github.com/lunaris-labs/basket/internal/model"
	"github.com/lunaris-labs/basket/internal/recommend"
	"github.com/lunaris-labs/basket/internal/service"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const (
	defaultTopN = 10
	maxTopN     = 100
	searchLimit = 50
)

// Config wires the server to the snapshot computed at startup.
type Config struct {
	Store       service.Storage
	Recommender *recommend.Recommender
	Products    []model.Product
	Countries   []string
	TopProducts []model.ProductRank
}

// Server renders the product form and answers the JSON API. All
// recommendation state is an immutable snapshot built at startup, so
// handlers share nothing mutable.
type Server struct {
	engine *gin.Engine
	cfg    Config
}

// NewServer builds the router and parses the embedded templates.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil || cfg.Recommender == nil {
		return nil, common.ErrMissingConfig
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.SetHTMLTemplate(tmpl)

	s := &Server{engine: engine, cfg: cfg}

	engine.GET("/", s.index)
	api := engine.Group("/api")
	api.GET("/popular", s.apiPopular)
	api.GET("/recommend", s.apiRecommend)
	api.GET("/products", s.apiProducts)
	api.GET("/countries", s.apiCountries)

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails or the process exits.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// pageData feeds the index template.
type pageData struct {
	Products    []model.Product
	Countries   []string
	Popular     []model.ProductRank
	Suggestions []recommend.Suggestion
	Selected    string
	Country     string
	TopN        int
	Error       string
}

func (s *Server) index(c *gin.Context) {
	data := pageData{
		Products:  s.cfg.Products,
		Countries: s.cfg.Countries,
		Selected:  strings.ToUpper(strings.TrimSpace(c.Query("product"))),
		Country:   c.Query("country"),
		TopN:      defaultTopN,
	}

	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTopN {
			data.Error = "count must be a whole number between 1 and 100"
			c.HTML(http.StatusBadRequest, "index.tmpl", data)
			return
		}
		data.TopN = n
	}

	data.Popular = s.cfg.TopProducts
	if len(data.Popular) > data.TopN {
		data.Popular = data.Popular[:data.TopN]
	}

	if data.Selected != "" {
		if _, err := s.cfg.Store.Product(c.Request.Context(), data.Selected); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				data.Error = "unknown product " + data.Selected
				c.HTML(http.StatusNotFound, "index.tmpl", data)
				return
			}
			c.HTML(http.StatusInternalServerError, "index.tmpl", data)
			return
		}
		data.Suggestions = s.cfg.Recommender.Recommend([]string{data.Selected}, data.Country, data.TopN)
	}

	c.HTML(http.StatusOK, "index.tmpl", data)
}

func (s *Server) apiPopular(c *gin.Context) {
	topN, ok := s.topN(c)
	if !ok {
		return
	}

	popular := s.cfg.TopProducts
	if country := c.Query("country"); country != "" {
		var err error
		popular, err = s.cfg.Store.TopProducts(c.Request.Context(), topN, country)
		if err != nil {
			common.LogError(err, "popularity query failed", common.Fields{"country": country})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rank products"})
			return
		}
	}
	if len(popular) > topN {
		popular = popular[:topN]
	}

	c.JSON(http.StatusOK, gin.H{"popular": popular})
}

func (s *Server) apiRecommend(c *gin.Context) {
	topN, ok := s.topN(c)
	if !ok {
		return
	}

	var items []string
	for _, raw := range strings.Split(c.Query("items"), ",") {
		if item := strings.ToUpper(strings.TrimSpace(raw)); item != "" {
			items = append(items, item)
		}
	}
	if product := strings.ToUpper(strings.TrimSpace(c.Query("product"))); product != "" {
		items = append(items, product)
	}

	for _, item := range items {
		if _, err := s.cfg.Store.Product(c.Request.Context(), item); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown product " + item})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "product lookup failed"})
			return
		}
	}

	suggestions := s.cfg.Recommender.Recommend(items, c.Query("country"), topN)
	if suggestions == nil {
		suggestions = []recommend.Suggestion{}
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (s *Server) apiProducts(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"products": []model.Product{}})
		return
	}

	products, err := s.cfg.Store.SearchProducts(c.Request.Context(), query, searchLimit)
	if err != nil {
		common.LogError(err, "product search failed", common.Fields{"query": query})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (s *Server) apiCountries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"countries": s.cfg.Countries})
}

// topN parses and bounds the top query parameter, answering the request
// itself when the value is invalid.
func (s *Server) topN(c *gin.Context) (int, bool) {
	raw := c.Query("top")
	if raw == "" {
		return defaultTopN, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxTopN {
		c.JSON(http.StatusBadRequest, gin.H{"error": "top must be between 1 and 100"})
		return 0, false
	}
	return n, true
}
