package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/isEarth/earth-api/pkg/logger"
	"github.com/isEarth/earth-api/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// PersistGraph writes one batch to Neo4j inside a single managed write
// transaction: node creation, chain edges typed by the batch partition, and
// connectedYoutube links from the matching Event entity. Any failure rolls
// the whole batch back. The creation timestamp is computed once and shared
// by every node in the batch.
func (s *GraphNeo4jStore) PersistGraph(ctx context.Context, batch store.GraphBatch) error {
	if len(batch.Nodes) == 0 {
		return nil
	}

	ts := time.Now().UnixMilli()
	topics := []string(batch.Topics)

	nodeRows := make([]map[string]any, 0, len(batch.Nodes))
	names := make([]string, 0, len(batch.Nodes))
	for _, n := range batch.Nodes {
		nodeRows = append(nodeRows, map[string]any{
			"name":      n.Text,
			"embedding": n.Embedding,
		})
		names = append(names, n.Text)
	}

	edgeRows := make([]map[string]any, 0, len(batch.Edges))
	for _, e := range batch.Edges {
		edgeRows = append(edgeRows, map[string]any{
			"from": e.From,
			"to":   e.To,
		})
	}

	relType := batch.Partition.RelationType()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	logger.Debug("[Store] Persisting graph",
		"partition", string(batch.Partition),
		"nodes", len(nodeRows),
		"edges", len(edgeRows),
	)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $nodes AS n
CREATE (:Youtube {
	name: n.name,
	embedding: n.embedding,
	createdTimestamp: $ts,
	oriTopic: $topics
})
`, map[string]any{"nodes": nodeRows, "ts": ts, "topics": topics})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(edgeRows) > 0 {
			res, err = tx.Run(ctx, fmt.Sprintf(`
UNWIND $edges AS e
MATCH (a:Youtube {name: e.from})
MATCH (b:Youtube {name: e.to})
CREATE (a)-[:%s]->(b)
`, relType), map[string]any{"edges": edgeRows})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		res, err = tx.Run(ctx, `
MATCH (ev:Event {topics: $topics})
UNWIND $names AS name
MATCH (n:Youtube {name: name})
CREATE (ev)-[:connectedYoutube]->(n)
`, map[string]any{"topics": topics, "names": names})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("persist graph batch: %w", err)
	}
	return nil
}
