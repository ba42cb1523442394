package relay

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// cursorPrefix namespaces encoded cursors so a decoded value can be checked
// for provenance before it is trusted.
const cursorPrefix = "edge_cursor:"

// Node is any entity with a globally stable identifier
type Node interface {
	NodeID() string
}

// Edge pairs a node with its opaque position marker
type Edge[T Node] struct {
	Cursor string `json:"cursor"`
	Node   T      `json:"node"`
}

// PageInfo carries pagination metadata for a connection
type PageInfo struct {
	StartCursor     string `json:"startCursor"`
	EndCursor       string `json:"endCursor"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
}

// Connection is an ordered sequence of edges plus page metadata. A connection
// is never constructed from zero nodes; the empty case collapses to nil so
// callers can distinguish "not applicable" from "applicable but empty".
type Connection[T Node] struct {
	Edges    []Edge[T] `json:"edges"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// Build assembles a connection from an ordered node list. It returns nil for
// an empty list regardless of the page flags. Edge order is input order; no
// sorting is performed.
func Build[T Node](nodes []T, hasNextPage, hasPreviousPage bool) *Connection[T] {
	if len(nodes) == 0 {
		return nil
	}

	edges := make([]Edge[T], len(nodes))
	for i, node := range nodes {
		edges[i] = Edge[T]{
			Cursor: EncodeCursor(node.NodeID()),
			Node:   node,
		}
	}

	return &Connection[T]{
		Edges: edges,
		PageInfo: PageInfo{
			StartCursor:     edges[0].Cursor,
			EndCursor:       edges[len(edges)-1].Cursor,
			HasNextPage:     hasNextPage,
			HasPreviousPage: hasPreviousPage,
		},
	}
}

// EncodeCursor derives the opaque cursor for a node id. The encoding is pure
// and deterministic, so equal ids always produce equal cursors.
func EncodeCursor(nodeID string) string {
	return base64.StdEncoding.EncodeToString([]byte(cursorPrefix + nodeID))
}

// DecodeCursor recovers the node id a cursor was derived from
func DecodeCursor(cursor string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("malformed cursor: %w", err)
	}

	decoded := string(raw)
	if !strings.HasPrefix(decoded, cursorPrefix) {
		return "", fmt.Errorf("malformed cursor: missing prefix")
	}

	return strings.TrimPrefix(decoded, cursorPrefix), nil
}
