package graph

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "neo-ogm/pkg/errors"
)

// TestRepository requires a running Neo4j instance
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables
func TestRepository_FetchGraph(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver := createTestDriver(t)
	defer driver.Close(ctx)

	repo := NewRepository(driver, WithTimeout(10*time.Second))
	tag := "fetch-" + time.Now().Format("20060102150405")

	defer func() {
		_ = repo.Execute(ctx, "MATCH (n {test_tag: $tag}) DETACH DELETE n", map[string]any{"tag": tag})
	}()

	err := repo.Execute(ctx, `
		CREATE (p:Person {name: 'Keanu', test_tag: $tag})
		CREATE (m:Movie {title: 'The Matrix', test_tag: $tag})
		CREATE (p)-[:RATED {stars: 5}]->(m)
	`, map[string]any{"tag": tag})
	require.NoError(t, err)

	model, err := repo.Fetch(ctx,
		"MATCH (p:Person {test_tag: $tag})-[r:RATED]->(m:Movie) RETURN p, r, m",
		map[string]any{"tag": tag})
	require.NoError(t, err)
	assert.Len(t, model.Nodes, 2)
	require.Len(t, model.Relationships, 1)
	assert.Equal(t, "RATED", model.Relationships[0].Type)
	assert.Equal(t, model.Nodes[0].ID, model.Relationships[0].StartNodeID)
}

func TestRepository_FetchAllMerges(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver := createTestDriver(t)
	defer driver.Close(ctx)

	repo := NewRepository(driver, WithConcurrency(2))
	tag := "fetchall-" + time.Now().Format("20060102150405")

	defer func() {
		_ = repo.Execute(ctx, "MATCH (n {test_tag: $tag}) DETACH DELETE n", map[string]any{"tag": tag})
	}()

	require.NoError(t, repo.Execute(ctx,
		"CREATE (:Person {name: 'A', test_tag: $tag})-[:KNOWS]->(:Person {name: 'B', test_tag: $tag})",
		map[string]any{"tag": tag}))

	params := map[string]any{"tag": tag}
	model, err := repo.FetchAll(ctx, []Statement{
		{Cypher: "MATCH (p:Person {test_tag: $tag}) RETURN p", Params: params},
		{Cypher: "MATCH (:Person {test_tag: $tag})-[k:KNOWS]->(:Person) RETURN k", Params: params},
		{Cypher: "MATCH path = (:Person {test_tag: $tag})-[:KNOWS]->() RETURN path", Params: params},
	})
	require.NoError(t, err)
	assert.Len(t, model.Nodes, 2)
	assert.Len(t, model.Relationships, 1)
}

func TestRepository_QueryError(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver := createTestDriver(t)
	defer driver.Close(ctx)

	repo := NewRepository(driver)
	_, err := repo.Fetch(ctx, "THIS IS NOT CYPHER", nil)
	require.Error(t, err)

	var queryErr *apperrors.ErrGraphQueryFailed
	assert.True(t, errors.As(err, &queryErr))
	assert.True(t, apperrors.IsRetryable(err))
}

func createTestDriver(t *testing.T) neo4j.DriverWithContext {
	t.Helper()
	uri := getEnvOr("NEO4J_URI", "bolt://localhost:7687")
	user := getEnvOr("NEO4J_USER", "neo4j")
	password := getEnvOr("NEO4J_PASSWORD", "password")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		t.Skipf("Neo4j driver unavailable: %v", err)
	}

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		t.Skipf("Neo4j not reachable at %s: %v", uri, err)
	}

	return driver
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
