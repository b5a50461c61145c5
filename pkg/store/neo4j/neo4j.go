package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphNeo4jStore persists transcript graphs to a Neo4j instance. It holds a
// long-lived driver created once at startup; sessions are acquired and
// released per persistence call.
//
// A GraphNeo4jStore should be created using NewGraphNeo4jStore.
type GraphNeo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewGraphNeo4jStoreParams contains connection configuration for the store.
type NewGraphNeo4jStoreParams struct {
	URI      string
	Username string
	Password string
	Database string
}

// NewGraphNeo4jStore creates a store backed by a Neo4j driver. The driver is
// constructed eagerly; use VerifyConnectivity to confirm the instance is
// reachable before serving traffic.
func NewGraphNeo4jStore(params NewGraphNeo4jStoreParams) (*GraphNeo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		params.URI,
		neo4j.BasicAuth(params.Username, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	database := params.Database
	if database == "" {
		database = "neo4j"
	}

	return &GraphNeo4jStore{
		driver:   driver,
		database: database,
	}, nil
}

// VerifyConnectivity checks that the Neo4j instance is reachable.
func (s *GraphNeo4jStore) VerifyConnectivity(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close releases the underlying driver and its connection pool.
func (s *GraphNeo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
