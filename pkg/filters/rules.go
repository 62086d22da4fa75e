package filters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/soapd/pkg/extensibility"
	"github.com/getmockd/soapd/pkg/logging"
	"github.com/getmockd/soapd/pkg/soap"
)

// RuleEffect is what a matching rule does with the request.
type RuleEffect string

const (
	// EffectFault answers with the rule's fault without invoking the operation.
	EffectFault RuleEffect = "fault"
	// EffectDrop ends the exchange without a response body.
	EffectDrop RuleEffect = "drop"
)

// ErrInvalidRule is returned by Rules for rules that cannot be compiled.
var ErrInvalidRule = errors.New("invalid rule")

// Rule intercepts requests whose action matches a glob and whose condition
// holds. Rules are evaluated in order; the first match applies.
type Rule struct {
	Name string `json:"name" yaml:"name"`

	// Action is a doublestar glob over the request action, e.g. "**/Divide".
	// Empty matches every action.
	Action string `json:"action,omitempty" yaml:"action,omitempty"`

	// When is an expr-lang boolean expression. Empty always holds. It can
	// reference action, body, version, messageId and remoteAddr, and call
	// XPath(path) and Header(name).
	When string `json:"when,omitempty" yaml:"when,omitempty"`

	Effect RuleEffect `json:"effect" yaml:"effect"`

	// Fault is the fault returned by EffectFault rules.
	Fault *soap.Fault `json:"fault,omitempty" yaml:"fault,omitempty"`
}

// RuleEnv is the environment rule conditions are evaluated against.
type RuleEnv struct {
	Action     string `expr:"action"`
	Body       string `expr:"body"`
	Version    string `expr:"version"`
	MessageID  string `expr:"messageId"`
	RemoteAddr string `expr:"remoteAddr"`

	msg *soap.Message
	req *http.Request
}

// XPath returns the text at path relative to the body payload.
func (e RuleEnv) XPath(path string) string {
	return e.msg.ExtractXPath(path)
}

// Header returns the first value of an HTTP request header.
func (e RuleEnv) Header(name string) string {
	if e.req == nil {
		return ""
	}
	return e.req.Header.Get(name)
}

type compiledRule struct {
	Rule
	when *vm.Program
}

// compile validates r and compiles its condition.
func (r Rule) compile() (*compiledRule, error) {
	if r.Action != "" && !doublestar.ValidatePattern(r.Action) {
		return nil, fmt.Errorf("%w %q: bad action pattern %q", ErrInvalidRule, r.Name, r.Action)
	}
	switch r.Effect {
	case EffectFault:
		if r.Fault == nil {
			return nil, fmt.Errorf("%w %q: fault effect requires a fault", ErrInvalidRule, r.Name)
		}
	case EffectDrop:
	default:
		return nil, fmt.Errorf("%w %q: unknown effect %q", ErrInvalidRule, r.Name, r.Effect)
	}

	cr := &compiledRule{Rule: r}
	if r.When != "" {
		program, err := expr.Compile(r.When, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidRule, r.Name, err)
		}
		cr.when = program
	}
	return cr, nil
}

func (r *compiledRule) matches(env RuleEnv) (bool, error) {
	if r.Action != "" {
		ok, err := doublestar.Match(r.Action, env.Action)
		if err != nil || !ok {
			return false, err
		}
	}
	if r.when == nil {
		return true, nil
	}
	out, err := expr.Run(r.when, env)
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", r.Name, err)
	}
	return out.(bool), nil
}

// Rules compiles rules into a message filter. Compilation errors are
// reported here rather than per request.
func Rules(logger *slog.Logger, rules ...Rule) (extensibility.MessageFilter, error) {
	compiled := make([]*compiledRule, 0, len(rules))
	for _, r := range rules {
		cr, err := r.compile()
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cr)
	}

	return extensibility.MessageFilterFunc(func(ctx context.Context, c *extensibility.MessageExecutingContext, next extensibility.MessageNext) error {
		msg := c.Message()
		env := RuleEnv{
			Action:    msg.Headers.Action,
			Body:      msg.BodyName(),
			Version:   msg.Version.String(),
			MessageID: msg.Headers.MessageID,
			msg:       msg,
		}
		if c.HTTP != nil && c.HTTP.Request != nil {
			env.req = c.HTTP.Request
			env.RemoteAddr = c.HTTP.Request.RemoteAddr
		}

		for _, r := range compiled {
			ok, err := r.matches(env)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			logging.FromContext(ctx, logger).Info("rule matched", "rule", r.Name, "effect", string(r.Effect))
			if r.Effect == EffectFault {
				fault := *r.Fault
				c.Result.Set(soap.NewFaultMessage(msg.Version, soap.DefaultNamespaces(), &fault))
			}
			return nil
		}

		_, err := next(ctx)
		return err
	}), nil
}
