package common

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

// SetNodeID selects the snowflake node used by UUIDint64. It must be called
// before the first id is generated; later calls have no effect.
func SetNodeID(n int64) {
	idNodeOnce.Do(func() {
		node, err := snowflake.NewNode(n)
		if err != nil {
			node, _ = snowflake.NewNode(1)
		}
		idNode = node
	})
}

// UUIDint64 returns a time-ordered 64 bit id.
func UUIDint64() int64 {
	SetNodeID(1)
	return idNode.Generate().Int64()
}

// UUID returns a random RFC 4122 id in canonical string form.
func UUID() string {
	return uuid.NewString()
}
