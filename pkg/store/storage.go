package store

import (
	"context"

	"github.com/isEarth/earth-api/pkg/common"
)

// GraphBatch is one partition's worth of graph writes for a single transcript
// run: the nodes, the chain edges between them, the topic label stamped on
// every node, and the partition that types the edges.
type GraphBatch struct {
	Nodes     []common.Node
	Edges     []common.Edge
	Topics    common.TopicLabel
	Partition common.Partition
}

// GraphStore defines the interface for persisting transcript graphs.
// A batch either commits completely or not at all.
type GraphStore interface {
	PersistGraph(ctx context.Context, batch GraphBatch) error
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}
