package idgen

import (
	"github.com/bwmarrin/snowflake"
	"github.com/jimlawless/whereami"
	"github.com/spams12/gege/pkg/e"
)

const orderIDPrefix = "ORD-"

// OrderIDs выдаёт упорядоченные по времени идентификаторы заказов вида ORD-<snowflake>.
type OrderIDs struct {
	node *snowflake.Node
}

// NewOrderIDs создаёт генератор для узла nodeID (0..1023). У каждого экземпляра сервиса свой узел.
func NewOrderIDs(nodeID int64) (*OrderIDs, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &OrderIDs{node: node}, nil
}

func (o *OrderIDs) NextOrderID() string {
	return orderIDPrefix + o.node.Generate().String()
}
