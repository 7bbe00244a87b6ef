// Package noderegistry tracks which principals are coordinating node
// or member node administrators, derived from the cluster node
// registry.
package noderegistry

import (
	"context"

	"github.com/DataONEorg/d1-solr-extensions/sessions"
)

type NodeType string

const (
	NodeTypeCN NodeType = "cn"
	NodeTypeMN NodeType = "mn"
)

type NodeState string

const (
	NodeStateUp   NodeState = "up"
	NodeStateDown NodeState = "down"
)

// ServiceMethodRestriction whitelists subjects for one named method
// of a service.
type ServiceMethodRestriction struct {
	MethodName string
	Subjects   []sessions.Subject
}

type NodeService struct {
	Name         string
	Restrictions []ServiceMethodRestriction
}

type Node struct {
	Identifier string
	Type       NodeType
	State      NodeState
	Subjects   []sessions.Subject
	Services   []NodeService
}

// NodeLister is the cluster membership collaborator.
type NodeLister interface {
	ListNodes(ctx context.Context) ([]*Node, error)
}
