package service

import (
	"fmt"
	"strings"
)

// Resolver looks up the operation addressed by a request.
type Resolver interface {
	Lookup(actionOrName string) (*OperationDescription, error)
}

// IndexResolver resolves operations of a single service by action or name.
type IndexResolver struct {
	byAction map[string]*OperationDescription
	byName   map[string]*OperationDescription
}

// NewResolver indexes the operations of svc.
func NewResolver(svc *ServiceDescription) *IndexResolver {
	r := &IndexResolver{
		byAction: make(map[string]*OperationDescription, len(svc.Operations)),
		byName:   make(map[string]*OperationDescription, len(svc.Operations)),
	}
	for _, op := range svc.Operations {
		r.byAction[op.SoapAction] = op
		r.byName[op.Name] = op
	}
	return r
}

// Lookup returns the operation whose action or name equals actionOrName.
// Surrounding quotes are ignored; matching is case-sensitive.
func (r *IndexResolver) Lookup(actionOrName string) (*OperationDescription, error) {
	key := strings.Trim(strings.TrimSpace(actionOrName), "\"")
	if op, ok := r.byAction[key]; ok {
		return op, nil
	}
	if op, ok := r.byName[key]; ok {
		return op, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrOperationNotFound, key)
}
