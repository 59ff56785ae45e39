package graph

import (
	"context"
	"errors"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "neo-ogm/pkg/errors"
	"neo-ogm/pkg/logger"
)

// Statement is one parameterized Cypher query
type Statement struct {
	Cypher string         `json:"cypher"`
	Params map[string]any `json:"params,omitempty"`
}

// Repository runs Cypher statements against Neo4j and returns their results
// as GraphModels
type Repository struct {
	driver      neo4j.DriverWithContext
	database    string
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

// Option configures a Repository
type Option func(*Repository)

// WithDatabase selects the database; empty means the server default
func WithDatabase(name string) Option {
	return func(r *Repository) { r.database = name }
}

// WithTimeout bounds each statement
func WithTimeout(d time.Duration) Option {
	return func(r *Repository) { r.timeout = d }
}

// WithConcurrency bounds the statements FetchAll runs at once
func WithConcurrency(n int) Option {
	return func(r *Repository) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext, opts ...Option) *Repository {
	r := &Repository{
		driver:      driver,
		timeout:     30 * time.Second,
		concurrency: 4,
		logger:      logger.Named("graph"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// VerifyConnectivity checks that the server is reachable
func (r *Repository) VerifyConnectivity(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

// Fetch runs a read statement and collects every node, relationship and
// path it returns
func (r *Repository) Fetch(ctx context.Context, cypher string, params map[string]any) (*GraphModel, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, r.queryError(ctx, cypher, err)
	}

	builder := NewBuilder()
	count := 0
	for result.Next(ctx) {
		builder.AddRecord(result.Record())
		count++
	}
	if err := result.Err(); err != nil {
		return nil, r.queryError(ctx, cypher, err)
	}

	model := builder.Model()
	r.logger.Debug("Fetched graph",
		zap.Int("records", count),
		zap.Int("nodes", len(model.Nodes)),
		zap.Int("relationships", len(model.Relationships)),
	)
	return model, nil
}

// FetchAll runs the statements concurrently and merges their graphs in
// statement order
func (r *Repository) FetchAll(ctx context.Context, statements []Statement) (*GraphModel, error) {
	models := make([]*GraphModel, len(statements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, stmt := range statements {
		g.Go(func() error {
			model, err := r.Fetch(gctx, stmt.Cypher, stmt.Params)
			if err != nil {
				return err
			}
			models[i] = model
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	builder := NewBuilder()
	for _, m := range models {
		builder.Merge(m)
	}
	return builder.Model(), nil
}

// Execute runs a write statement and discards its records
func (r *Repository) Execute(ctx context.Context, cypher string, params map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return r.queryError(ctx, cypher, err)
	}
	if _, err := result.Consume(ctx); err != nil {
		return r.queryError(ctx, cypher, err)
	}
	return nil
}

func (r *Repository) queryError(ctx context.Context, cypher string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewContextTimeout("graph query", r.timeout)
	}
	return apperrors.NewGraphQueryFailed(cypher, err)
}
