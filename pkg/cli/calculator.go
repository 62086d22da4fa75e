package cli

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/getmockd/soapd/pkg/logging"
	"github.com/getmockd/soapd/pkg/service"
	"github.com/getmockd/soapd/pkg/soap"
)

// CalculatorNamespace is the contract namespace of the built-in demo service.
const CalculatorNamespace = "http://soapd.dev/calculator"

// calculatorService is the demo service hosted by soapd serve.
func calculatorService(logger *slog.Logger) *service.ServiceDescription {
	return service.New("Calculator", CalculatorNamespace).
		Operation("Add", func(_ context.Context, _ any, args []any) (any, error) {
			return service.Arg[int](args, 0) + service.Arg[int](args, 1), nil
		}, service.In[int]("a"), service.In[int]("b")).
		Operation("Subtract", func(_ context.Context, _ any, args []any) (any, error) {
			return service.Arg[int](args, 0) - service.Arg[int](args, 1), nil
		}, service.In[int]("a"), service.In[int]("b")).
		Operation("Multiply", func(_ context.Context, _ any, args []any) (any, error) {
			return service.Arg[int](args, 0) * service.Arg[int](args, 1), nil
		}, service.In[int]("a"), service.In[int]("b")).
		Operation("Divide", func(_ context.Context, _ any, args []any) (any, error) {
			b := service.Arg[int](args, 1)
			if b == 0 {
				return nil, &soap.Fault{Code: soap.CodeClient, Message: "division by zero", StatusCode: http.StatusBadRequest}
			}
			return service.Arg[int](args, 0) / b, nil
		}, service.In[int]("a"), service.In[int]("b")).
		Operation("Echo", func(_ context.Context, _ any, args []any) (any, error) {
			return service.Arg[string](args, 0), nil
		}, service.In[string]("text")).
		Operation("Log", func(ctx context.Context, _ any, args []any) (any, error) {
			logging.FromContext(ctx, logger).Info("client message", "message", service.Arg[string](args, 0))
			return nil, nil
		}, service.In[string]("message"), service.OneWay()).
		MustBuild()
}
