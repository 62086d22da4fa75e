// Package service describes hosted SOAP services and provides the
// collaborators the endpoint needs to call them: operation lookup, argument
// decoding, response body writing, invocation and instance resolution.
//
// Operations are registered explicitly with a Builder:
//
//	svc := service.New("Calculator", "http://example.com/calculator").
//	    Operation("Add", add,
//	        service.In[int]("a"),
//	        service.In[int]("b"),
//	    ).
//	    Operation("Log", logMessage,
//	        service.In[string]("message"),
//	        service.OneWay(),
//	    ).
//	    MustBuild()
//
// A DispatchFunc receives one argument slot per declared parameter. Use Arg
// to read a slot with a zero-value default:
//
//	func add(ctx context.Context, _ any, args []any) (any, error) {
//	    return service.Arg[int](args, 0) + service.Arg[int](args, 1), nil
//	}
package service
