package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"neo-ogm/internal/domain"
	"neo-ogm/internal/graph"
	"neo-ogm/internal/mapper"
	"neo-ogm/internal/metadata"
	"neo-ogm/pkg/config"
	"neo-ogm/pkg/logger"
)

type seedMovie struct {
	name     string
	released int
	tagline  string
	genres   []string
}

type seedRating struct {
	person  string
	movie   string
	stars   int
	comment string
}

var (
	seedPeople = map[string]int{
		"Keanu Reeves":       1964,
		"Carrie-Anne Moss":   1967,
		"Laurence Fishburne": 1961,
		"Hugo Weaving":       1960,
	}

	seedMovies = []seedMovie{
		{"The Matrix", 1999, "Welcome to the Real World", []string{"sci-fi", "action"}},
		{"The Matrix Reloaded", 2003, "Free your mind", []string{"sci-fi", "action"}},
		{"Cloud Atlas", 2012, "Everything is connected", []string{"drama", "sci-fi"}},
	}

	seedRatings = []seedRating{
		{"Keanu Reeves", "The Matrix", 5, "I know kung fu"},
		{"Keanu Reeves", "The Matrix Reloaded", 4, ""},
		{"Keanu Reeves", "Cloud Atlas", 3, ""},
		{"Carrie-Anne Moss", "The Matrix", 5, "Dodge this"},
		{"Hugo Weaving", "Cloud Atlas", 4, ""},
	}

	seedLikes = [][2]string{
		{"Keanu Reeves", "Carrie-Anne Moss"},
		{"Carrie-Anne Moss", "Keanu Reeves"},
		{"Laurence Fishburne", "Keanu Reeves"},
	}

	seedFollows = [][2]string{
		{"Keanu Reeves", "Laurence Fishburne"},
	}
)

func main() {
	reset := flag.Bool("reset", false, "Delete every node and relationship before seeding")
	verify := flag.Bool("verify", true, "Read the seeded graph back through the mapper")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	runID := uuid.NewString()
	log := logger.Get().With(zap.String("run_id", runID))
	log.Info("Starting database seeding...")

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}

	repo := graph.NewRepository(driver,
		graph.WithDatabase(cfg.Neo4jDatabase),
		graph.WithTimeout(cfg.QueryTimeout),
	)
	defer repo.Close()

	// Verify connection
	ctx := context.Background()
	if err := repo.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	if *reset {
		log.Info("Deleting existing data...")
		if err := repo.Execute(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
			log.Fatal("Failed to delete existing data", zap.Error(err))
		}
	}

	// Create indexes for better performance
	log.Info("Creating indexes...")
	createIndexes(ctx, repo, log)

	if err := seed(ctx, repo, runID); err != nil {
		log.Fatal("Failed to seed graph", zap.Error(err))
	}
	log.Info("Seeded demo graph",
		zap.Int("people", len(seedPeople)),
		zap.Int("movies", len(seedMovies)),
		zap.Int("ratings", len(seedRatings)),
	)

	if *verify {
		if err := verifySeed(ctx, repo, runID, log); err != nil {
			log.Fatal("Failed to read back seeded graph", zap.Error(err))
		}
	}

	log.Info("Seeding complete")
}

// createIndexes creates Neo4j indexes for the demo labels
func createIndexes(ctx context.Context, repo *graph.Repository, log *zap.Logger) {
	indexes := []string{
		"CREATE INDEX person_name IF NOT EXISTS FOR (p:Person) ON (p.name)",
		"CREATE INDEX movie_name IF NOT EXISTS FOR (m:Movie) ON (m.name)",
		"CREATE INDEX seed_run_person IF NOT EXISTS FOR (p:Person) ON (p.seed_run)",
	}

	for _, index := range indexes {
		if err := repo.Execute(ctx, index, nil); err != nil {
			// Log but don't fail - indexes may already exist
			log.Warn("Failed to create index", zap.String("index", index), zap.Error(err))
		}
	}
}

func seed(ctx context.Context, repo *graph.Repository, runID string) error {
	for name, born := range seedPeople {
		err := repo.Execute(ctx,
			"MERGE (p:Person {name: $name}) SET p.born = $born, p.seed_run = $run",
			map[string]any{"name": name, "born": born, "run": runID})
		if err != nil {
			return err
		}
	}

	for _, m := range seedMovies {
		err := repo.Execute(ctx,
			"MERGE (m:Movie:Rateable {name: $name}) SET m.released = $released, m.tagline = $tagline, m.genres = $genres, m.seed_run = $run",
			map[string]any{"name": m.name, "released": m.released, "tagline": m.tagline, "genres": m.genres, "run": runID})
		if err != nil {
			return err
		}
	}

	for _, r := range seedRatings {
		err := repo.Execute(ctx, `
			MATCH (p:Person {name: $person}), (m:Movie {name: $movie})
			MERGE (p)-[r:RATED]->(m)
			SET r.stars = $stars, r.comment = $comment`,
			map[string]any{"person": r.person, "movie": r.movie, "stars": r.stars, "comment": r.comment})
		if err != nil {
			return err
		}
	}

	for relType, pairs := range map[string][][2]string{"LIKES": seedLikes, "FOLLOWS": seedFollows} {
		for _, pair := range pairs {
			err := repo.Execute(ctx,
				fmt.Sprintf("MATCH (a:Person {name: $from}), (b:Person {name: $to}) MERGE (a)-[:%s]->(b)", relType),
				map[string]any{"from": pair[0], "to": pair[1]})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// verifySeed maps the seeded people back and logs what each one rated
func verifySeed(ctx context.Context, repo *graph.Repository, runID string, log *zap.Logger) error {
	registry := metadata.NewRegistry()
	if err := domain.Register(registry); err != nil {
		return err
	}
	m := mapper.New(registry)

	params := map[string]any{"run": runID}
	model, err := repo.FetchAll(ctx, []graph.Statement{
		{Cypher: "MATCH (p:Person {seed_run: $run}) RETURN p", Params: params},
		{Cypher: "MATCH (p:Person {seed_run: $run})-[r:RATED]->(m:Movie) RETURN p, r, m", Params: params},
		{Cypher: "MATCH (a:Person {seed_run: $run})-[r:LIKES|FOLLOWS]->(b:Person) RETURN a, r, b", Params: params},
	})
	if err != nil {
		return err
	}

	people, err := mapper.MapAs[*domain.Person](m, model, mapper.NewMappingContext())
	if err != nil {
		return err
	}
	for _, p := range people {
		log.Info("Seeded person",
			zap.String("name", p.Name),
			zap.Int("ratings", len(p.MovieRatings)),
			zap.Int("likes", len(p.PeopleILike)),
			zap.Int("liked_by", len(p.PeopleWhoLikeMe)),
		)
	}
	return nil
}
