package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"neo-ogm/internal/constants"
	"neo-ogm/internal/graph"
	"neo-ogm/internal/mapper"
	"neo-ogm/internal/metadata"
	apperrors "neo-ogm/pkg/errors"
)

// graphFetcher is the part of graph.Repository the API needs
type graphFetcher interface {
	FetchAll(ctx context.Context, statements []graph.Statement) (*graph.GraphModel, error)
}

type queryRequest struct {
	Cypher     string            `json:"cypher"`
	Params     map[string]any    `json:"params"`
	Statements []graph.Statement `json:"statements"`
}

func (q queryRequest) statements() []graph.Statement {
	var out []graph.Statement
	if q.Cypher != "" {
		out = append(out, graph.Statement{Cypher: q.Cypher, Params: q.Params})
	}
	for _, s := range q.Statements {
		if s.Cypher != "" {
			out = append(out, s)
		}
	}
	return out
}

type typeView struct {
	Name             string   `json:"name"`
	SimpleName       string   `json:"simple_name"`
	Labels           []string `json:"labels,omitempty"`
	Superclass       string   `json:"superclass,omitempty"`
	Interfaces       []string `json:"interfaces,omitempty"`
	Abstract         bool     `json:"abstract"`
	Interface        bool     `json:"interface"`
	RelationshipType string   `json:"relationship_type,omitempty"`
}

type memberView struct {
	Member    string `json:"member"`
	Property  string `json:"property,omitempty"`
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
	GoType    string `json:"go_type"`
}

type typeDetailView struct {
	typeView
	Identity      string       `json:"identity,omitempty"`
	Properties    []memberView `json:"properties"`
	Relationships []memberView `json:"relationships"`
}

func newRouter(log *zap.Logger, m *mapper.Mapper, fetcher graphFetcher) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registry := m.Registry()

	api := router.Group("/api")
	{
		// List registered types
		api.GET("/types", func(c *gin.Context) {
			types := registry.Types()
			views := make([]typeView, 0, len(types))
			for _, td := range types {
				views = append(views, newTypeView(registry, td))
			}
			c.JSON(http.StatusOK, gin.H{"types": views})
		})

		// Describe one type
		api.GET("/types/:name", func(c *gin.Context) {
			td, err := registry.Describe(c.Param("name"))
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, newTypeDetailView(registry, td))
		})

		// Run statements and map their graph to a type
		api.POST("/query/:type", func(c *gin.Context) {
			td, err := registry.Describe(c.Param("type"))
			if err != nil {
				respondError(c, log, err)
				return
			}

			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxQueryBodyBytes)
			var req queryRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			statements := req.statements()
			if len(statements) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "cypher or statements required"})
				return
			}

			model, err := fetcher.FetchAll(c.Request.Context(), statements)
			if err != nil {
				respondError(c, log, err)
				return
			}

			results, err := m.Map(td.GoType(), model, mapper.NewMappingContext())
			if err != nil {
				respondError(c, log, err)
				return
			}

			summaries := make([]*mapper.Summary, 0, len(results))
			for _, r := range results {
				s, err := m.Summarize(r)
				if err != nil {
					respondError(c, log, err)
					return
				}
				summaries = append(summaries, s)
			}

			c.JSON(http.StatusOK, gin.H{
				"type":          td.SimpleName(),
				"nodes":         len(model.Nodes),
				"relationships": len(model.Relationships),
				"count":         len(summaries),
				"results":       summaries,
			})
		})
	}

	return router
}

func newTypeView(registry *metadata.Registry, td *metadata.TypeDescriptor) typeView {
	v := typeView{
		Name:       td.Name(),
		SimpleName: td.SimpleName(),
		Superclass: td.SuperclassName(),
		Interfaces: td.InterfaceNames(),
		Abstract:   td.IsAbstract(),
		Interface:  td.IsInterface(),
	}
	if td.IsRelationshipEntity() {
		v.RelationshipType = td.RelationshipEntityType()
	} else {
		v.Labels = registry.Labels(td)
	}
	return v
}

func newTypeDetailView(registry *metadata.Registry, td *metadata.TypeDescriptor) typeDetailView {
	v := typeDetailView{
		typeView:      newTypeView(registry, td),
		Properties:    []memberView{},
		Relationships: []memberView{},
	}
	if f, err := td.IdentityField(); err == nil {
		v.Identity = f.Name()
	}
	for _, f := range td.PropertyFields() {
		v.Properties = append(v.Properties, memberView{
			Member:   f.Name(),
			Property: f.PropertyName(),
			Type:     "property",
			GoType:   f.Type().String(),
		})
	}
	for _, f := range td.RelationshipFields() {
		v.Relationships = append(v.Relationships, memberView{
			Member:    f.Name(),
			Type:      f.RelationshipType(),
			Direction: f.RelationshipDirection().String(),
			GoType:    f.Type().String(),
		})
	}
	return v
}

// respondError maps application errors to HTTP statuses
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var (
		notFound   *apperrors.ErrTypeNotFound
		mapping    *apperrors.ErrMapping
		timeout    *apperrors.ErrContextTimeout
		queryErr   *apperrors.ErrGraphQueryFailed
		connectErr *apperrors.ErrGraphConnectionFailed
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &mapping):
		log.Warn("Failed to map graph", zap.String("target", mapping.TargetType), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &timeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.As(err, &queryErr), errors.As(err, &connectErr):
		log.Error("Graph query failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to query graph"})
	default:
		log.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
