package utilities

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// IDSource hands out numeric entity identifiers.
type IDSource interface {
	NextID() int64
}

// Snowflake generates 64-bit ids from a single node. Safe for concurrent use.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node (0-1023).
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Snowflake{node: node}, nil
}

func (s *Snowflake) NextID() int64 {
	return s.node.Generate().Int64()
}

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}
