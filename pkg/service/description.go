package service

import (
	"context"
	"fmt"
	"reflect"
)

// Direction is the data flow direction of an operation parameter.
type Direction int

const (
	// DirectionIn parameters are read from the request.
	DirectionIn Direction = iota
	// DirectionOut parameters are written to the response.
	DirectionOut
	// DirectionInOut parameters are read from the request and written back.
	DirectionInOut
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionOut:
		return "out"
	case DirectionInOut:
		return "inout"
	default:
		return "in"
	}
}

// ParameterInfo describes one argument slot of an operation.
type ParameterInfo struct {
	Name      string
	Namespace string
	Index     int
	Direction Direction
	Type      reflect.Type
}

// DispatchFunc invokes an operation on a service instance. args holds one
// value per declared parameter in declaration order; out parameters are
// returned by assigning to their slot.
type DispatchFunc func(ctx context.Context, instance any, args []any) (any, error)

// ContractDescription identifies the contract an operation belongs to.
type ContractDescription struct {
	Name      string
	Namespace string
}

// OperationDescription is the immutable descriptor of a service operation.
type OperationDescription struct {
	Contract    *ContractDescription
	Name        string
	SoapAction  string
	ReplyAction string
	IsOneWay    bool
	Parameters  []ParameterInfo
	ReturnName  string
	Dispatch    DispatchFunc

	// Markers tag the operation for marker-based extensions.
	Markers []string
}

// InParameters returns the parameters read from the request.
func (o *OperationDescription) InParameters() []ParameterInfo {
	var out []ParameterInfo
	for _, p := range o.Parameters {
		if p.Direction != DirectionOut {
			out = append(out, p)
		}
	}
	return out
}

// OutParameters returns the parameters written to the response.
func (o *OperationDescription) OutParameters() []ParameterInfo {
	var out []ParameterInfo
	for _, p := range o.Parameters {
		if p.Direction != DirectionIn {
			out = append(out, p)
		}
	}
	return out
}

// HasMarker reports whether the operation carries marker.
func (o *OperationDescription) HasMarker(marker string) bool {
	for _, m := range o.Markers {
		if m == marker {
			return true
		}
	}
	return false
}

// String returns "Contract.Operation".
func (o *OperationDescription) String() string {
	return o.Contract.Name + "." + o.Name
}

// ServiceDescription describes a hosted service and its operations.
type ServiceDescription struct {
	Name       string
	Contract   *ContractDescription
	Operations []*OperationDescription
}

// Builder assembles a ServiceDescription.
type Builder struct {
	svc *ServiceDescription
	err error
}

// New starts a service whose contract is named name in namespace ns.
func New(name, ns string) *Builder {
	return &Builder{svc: &ServiceDescription{
		Name:     name,
		Contract: &ContractDescription{Name: name, Namespace: ns},
	}}
}

// OperationOption configures an operation registered on a Builder.
type OperationOption func(*OperationDescription)

func param[T any](name string, dir Direction) OperationOption {
	return func(o *OperationDescription) {
		o.Parameters = append(o.Parameters, ParameterInfo{
			Name:      name,
			Namespace: o.Contract.Namespace,
			Index:     len(o.Parameters),
			Direction: dir,
			Type:      reflect.TypeFor[T](),
		})
	}
}

// In declares an input parameter of type T.
func In[T any](name string) OperationOption { return param[T](name, DirectionIn) }

// Out declares an output parameter of type T.
func Out[T any](name string) OperationOption { return param[T](name, DirectionOut) }

// InOut declares a parameter of type T that is read and written back.
func InOut[T any](name string) OperationOption { return param[T](name, DirectionInOut) }

// OneWay marks the operation as producing no response message.
func OneWay() OperationOption {
	return func(o *OperationDescription) { o.IsOneWay = true }
}

// Action overrides the request action. Defaults to namespace/Name.
func Action(action string) OperationOption {
	return func(o *OperationDescription) { o.SoapAction = action }
}

// ReplyAction overrides the response action. Defaults to the action plus "Response".
func ReplyAction(action string) OperationOption {
	return func(o *OperationDescription) { o.ReplyAction = action }
}

// Returns names the result element. Defaults to Name plus "Result".
func Returns(name string) OperationOption {
	return func(o *OperationDescription) { o.ReturnName = name }
}

// Markers tags the operation.
func Markers(markers ...string) OperationOption {
	return func(o *OperationDescription) { o.Markers = append(o.Markers, markers...) }
}

// Operation registers an operation.
func (b *Builder) Operation(name string, dispatch DispatchFunc, opts ...OperationOption) *Builder {
	if b.err != nil {
		return b
	}
	if name == "" || dispatch == nil {
		b.err = fmt.Errorf("operation %q: name and dispatch are required", name)
		return b
	}
	for _, existing := range b.svc.Operations {
		if existing.Name == name {
			b.err = fmt.Errorf("operation %q: %w", name, ErrDuplicateOperation)
			return b
		}
	}

	op := &OperationDescription{
		Contract: b.svc.Contract,
		Name:     name,
		Dispatch: dispatch,
	}
	for _, opt := range opts {
		opt(op)
	}
	if op.SoapAction == "" {
		op.SoapAction = joinAction(b.svc.Contract.Namespace, name)
	}
	if op.ReplyAction == "" {
		op.ReplyAction = op.SoapAction + "Response"
	}
	if op.ReturnName == "" {
		op.ReturnName = name + "Result"
	}
	b.svc.Operations = append(b.svc.Operations, op)
	return b
}

// Build returns the service description or the first registration error.
func (b *Builder) Build() (*ServiceDescription, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.svc, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *ServiceDescription {
	svc, err := b.Build()
	if err != nil {
		panic(err)
	}
	return svc
}

func joinAction(ns, name string) string {
	if ns == "" {
		return name
	}
	if ns[len(ns)-1] == '/' {
		return ns + name
	}
	return ns + "/" + name
}

// Arg returns args[i] as T, or the zero value of T when the slot is nil or
// holds another type.
func Arg[T any](args []any, i int) T {
	var zero T
	if i < 0 || i >= len(args) {
		return zero
	}
	v, ok := args[i].(T)
	if !ok {
		return zero
	}
	return v
}
