// Package ids mints prefixed identifiers (TXN…, TRACK…, RES…, ORD…) from a
// snowflake node, so ids stay unique across replicas given distinct node ids.
package ids

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

const maxNodeID = 1023

type Generator struct {
	node *snowflake.Node
}

// New builds a generator for nodeID (0-1023).
func New(nodeID int64) (*Generator, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		return nil, errors.Errorf("node id %d out of range 0-%d", nodeID, maxNodeID)
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, errors.Wrap(err, "create snowflake node")
	}
	return &Generator{node: node}, nil
}

// FromHostname derives the node id from a hash of the hostname.
func FromHostname() (*Generator, error) {
	host, _ := os.Hostname()
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return New(int64(h.Sum32()) & maxNodeID)
}

// Next returns prefix followed by a fresh snowflake id.
func (g *Generator) Next(prefix string) string {
	return prefix + g.node.Generate().String()
}
