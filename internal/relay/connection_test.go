package relay

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	id string
}

func (n testNode) NodeID() string {
	return n.id
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []testNode
		hasNext bool
		hasPrev bool
	}{
		{
			name:    "single node",
			nodes:   []testNode{{id: "user:1"}},
			hasNext: false,
			hasPrev: false,
		},
		{
			name:    "multiple nodes with next page",
			nodes:   []testNode{{id: "a"}, {id: "b"}, {id: "c"}},
			hasNext: true,
			hasPrev: false,
		},
		{
			name:    "both page flags set",
			nodes:   []testNode{{id: "a"}, {id: "b"}},
			hasNext: true,
			hasPrev: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := Build(tt.nodes, tt.hasNext, tt.hasPrev)
			require.NotNil(t, conn)
			require.Len(t, conn.Edges, len(tt.nodes))

			for i, edge := range conn.Edges {
				assert.Equal(t, tt.nodes[i].id, edge.Node.id)
				assert.Equal(t, EncodeCursor(tt.nodes[i].id), edge.Cursor)
			}

			assert.Equal(t, conn.Edges[0].Cursor, conn.PageInfo.StartCursor)
			assert.Equal(t, conn.Edges[len(conn.Edges)-1].Cursor, conn.PageInfo.EndCursor)
			assert.Equal(t, tt.hasNext, conn.PageInfo.HasNextPage)
			assert.Equal(t, tt.hasPrev, conn.PageInfo.HasPreviousPage)
		})
	}
}

func TestBuildEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, Build([]testNode{}, false, false))
	assert.Nil(t, Build[testNode](nil, true, true))
}

func TestBuildPreservesOrder(t *testing.T) {
	nodes := []testNode{{id: "z"}, {id: "a"}, {id: "m"}}
	conn := Build(nodes, false, false)
	require.NotNil(t, conn)

	ids := make([]string, len(conn.Edges))
	for i, edge := range conn.Edges {
		ids[i] = edge.Node.id
	}
	assert.Equal(t, []string{"z", "a", "m"}, ids)
}

func TestCursorRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		nodeID string
	}{
		{name: "wallet id", nodeID: "ethereum_wallet:0xABC"},
		{name: "user id", nodeID: "user:42"},
		{name: "solana transaction id", nodeID: "solana_tx:5VERYLONGSIGNATURE"},
		{name: "empty id", nodeID: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor := EncodeCursor(tt.nodeID)
			decoded, err := DecodeCursor(cursor)
			require.NoError(t, err)
			assert.Equal(t, tt.nodeID, decoded)
		})
	}
}

func TestEncodeCursorDeterministic(t *testing.T) {
	assert.Equal(t, EncodeCursor("user:1"), EncodeCursor("user:1"))
	assert.NotEqual(t, EncodeCursor("user:1"), EncodeCursor("user:2"))
}

func TestDecodeCursorRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{name: "not base64", cursor: "%%%not-base64%%%"},
		{name: "missing prefix", cursor: base64.StdEncoding.EncodeToString([]byte("user:1"))},
		{name: "empty", cursor: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.cursor)
			assert.Error(t, err)
		})
	}
}
