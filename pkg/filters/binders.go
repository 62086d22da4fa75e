package filters

import (
	"context"
	"reflect"
	"strings"

	"github.com/getmockd/soapd/pkg/extensibility"
	"github.com/getmockd/soapd/pkg/soap"
)

// RequiredArguments returns a provider that rejects missing input arguments
// with a Client fault. It only claims absent values, so providers registered
// after it still see present ones. Parameters of nillable types (pointers,
// slices, maps, interfaces) are optional and not handled.
func RequiredArguments() extensibility.ValueBinderProvider {
	missing := extensibility.ValueBinderFunc(func(_ context.Context, c *extensibility.ValueBindingContext) error {
		return soap.ClientFault("missing required parameter " + c.Parameter.Name)
	})

	return extensibility.ValueBinderProviderFunc(func(c *extensibility.ValueBinderProviderContext) extensibility.ValueBinder {
		if c.ValueType != nil || c.Parameter.Type == nil || nillable(c.Parameter.Type) {
			return nil
		}
		return missing
	})
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// TrimStrings returns a provider that trims surrounding whitespace from
// string arguments. Absent arguments are left to later providers.
func TrimStrings() extensibility.ValueBinderProvider {
	trim := extensibility.ValueBinderFunc(func(_ context.Context, c *extensibility.ValueBindingContext) error {
		if s, ok := c.Value.(string); ok {
			c.Value = strings.TrimSpace(s)
		}
		return nil
	})

	return extensibility.ValueBinderProviderFunc(func(c *extensibility.ValueBinderProviderContext) extensibility.ValueBinder {
		if c.ValueType == nil || c.ValueType.Kind() != reflect.String {
			return nil
		}
		return trim
	})
}
