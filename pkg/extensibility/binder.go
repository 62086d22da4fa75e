package extensibility

import (
	"context"
	"reflect"

	"github.com/getmockd/soapd/pkg/service"
)

// ValueBinderProviderContext describes an argument a provider may bind.
type ValueBinderProviderContext struct {
	Operation *service.OperationDescription
	Parameter service.ParameterInfo

	// ValueType is the dynamic type of the decoded value, nil when the value is nil.
	ValueType reflect.Type
}

// ValueBindingContext holds the argument value a binder may read and replace.
type ValueBindingContext struct {
	Value     any
	Parameter service.ParameterInfo
	Operation *service.OperationDescription
	HTTP      *HTTPContext
}

// ValueBinder adjusts a single decoded argument.
type ValueBinder interface {
	BindValue(ctx context.Context, c *ValueBindingContext) error
}

// ValueBinderFunc adapts a function to ValueBinder.
type ValueBinderFunc func(ctx context.Context, c *ValueBindingContext) error

// BindValue calls f.
func (f ValueBinderFunc) BindValue(ctx context.Context, c *ValueBindingContext) error {
	return f(ctx, c)
}

// ValueBinderProvider returns the binder for an argument, or nil when it does
// not handle it.
type ValueBinderProvider interface {
	GetBinder(c *ValueBinderProviderContext) ValueBinder
}

// ValueBinderProviderFunc adapts a function to ValueBinderProvider.
type ValueBinderProviderFunc func(c *ValueBinderProviderContext) ValueBinder

// GetBinder calls f.
func (f ValueBinderProviderFunc) GetBinder(c *ValueBinderProviderContext) ValueBinder {
	return f(c)
}

// BindValues runs value binders over the input arguments of op. For each
// input parameter, providers are queried in order and the first non-nil
// binder is applied; the remaining providers are not queried. The bound value
// is written back into args. Binder errors are returned unchanged.
func BindValues(ctx context.Context, providers []ValueBinderProvider, op *service.OperationDescription, args []any, hc *HTTPContext) error {
	if len(providers) == 0 {
		return nil
	}

	for _, p := range op.InParameters() {
		if p.Index >= len(args) {
			continue
		}
		value := args[p.Index]

		var valueType reflect.Type
		if value != nil {
			valueType = reflect.TypeOf(value)
		}
		pc := &ValueBinderProviderContext{Operation: op, Parameter: p, ValueType: valueType}

		var binder ValueBinder
		for _, provider := range providers {
			if binder = provider.GetBinder(pc); binder != nil {
				break
			}
		}
		if binder == nil {
			continue
		}

		bc := &ValueBindingContext{Value: value, Parameter: p, Operation: op, HTTP: hc}
		if err := binder.BindValue(ctx, bc); err != nil {
			return err
		}
		args[p.Index] = bc.Value
	}
	return nil
}
