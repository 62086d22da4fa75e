package config

import (
	"fmt"
	"strings"

	"github.com/getmockd/soapd/pkg/filters"
	"github.com/getmockd/soapd/pkg/logging"
	"github.com/getmockd/soapd/pkg/soap"
	"github.com/getmockd/soapd/pkg/util"
)

// ValidationError is a single configuration problem.
type ValidationError struct {
	Path    string `json:"path,omitempty"` // e.g. "endpoint.rules[1].when"
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every problem found in a configuration.
type ValidationErrors struct {
	Errors []ValidationError
}

// Add records a problem at path.
func (r *ValidationErrors) Add(path, message string) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: message})
}

// IsValid reports whether no problem was recorded.
func (r *ValidationErrors) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationErrors) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Validate performs the semantic checks the schema cannot express. It
// returns a *ValidationErrors listing every problem, or nil.
func (c *Config) Validate() error {
	result := &ValidationErrors{}

	if c.Version != CurrentVersion {
		result.Add("version", fmt.Sprintf("unsupported version %q, expected %q", c.Version, CurrentVersion))
	}

	if c.Server.Listen == "" {
		result.Add("server.listen", "required")
	}
	if c.Server.ReadTimeout < 0 {
		result.Add("server.readTimeout", "must not be negative")
	}
	if c.Server.WriteTimeout < 0 {
		result.Add("server.writeTimeout", "must not be negative")
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		result.Add("log.level", err.Error())
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		result.Add("log.format", err.Error())
	}

	c.Endpoint.validate("endpoint", result)

	if result.IsValid() {
		return nil
	}
	return result
}

func (e *EndpointConfig) validate(path string, result *ValidationErrors) {
	if !strings.HasPrefix(e.Path, "/") {
		result.Add(path+".path", "must start with /")
	}

	if len(e.Versions) == 0 {
		result.Add(path+".versions", "at least one message version is required")
	}
	seen := make(map[soap.MessageVersion]bool, len(e.Versions))
	for i, name := range e.Versions {
		v, err := soap.ParseMessageVersion(name)
		if err != nil {
			result.Add(fmt.Sprintf("%s.versions[%d]", path, i), err.Error())
			continue
		}
		if seen[v] {
			result.Add(fmt.Sprintf("%s.versions[%d]", path, i), fmt.Sprintf("duplicate message version %s", v))
		}
		seen[v] = true
	}

	if e.WSDL != "" && e.WSDLFile != "" {
		result.Add(path+".wsdlFile", "cannot be combined with wsdl")
	}
	if e.WSDLFile != "" {
		if _, ok := util.SafeFilePathAllowAbsolute(e.WSDLFile); !ok {
			result.Add(path+".wsdlFile", "path escapes the configuration directory")
		}
	}

	if e.MaxBodySize < 0 {
		result.Add(path+".maxBodySize", "must not be negative")
	}

	for uri, prefix := range e.Prefixes {
		if uri == "" {
			result.Add(path+".prefixes", "namespace URI cannot be empty")
		}
		if prefix == "" || strings.Contains(prefix, ":") {
			result.Add(fmt.Sprintf("%s.prefixes[%s]", path, uri), fmt.Sprintf("invalid prefix %q", prefix))
		}
	}

	for i, name := range e.Binders {
		if name != BinderTrimStrings && name != BinderRequiredArguments {
			result.Add(fmt.Sprintf("%s.binders[%d]", path, i), fmt.Sprintf("unknown binder %q", name))
		}
	}

	names := make(map[string]bool, len(e.Rules))
	for i, r := range e.Rules {
		rulePath := fmt.Sprintf("%s.rules[%d]", path, i)
		if r.Name == "" {
			result.Add(rulePath+".name", "required")
		} else if names[r.Name] {
			result.Add(rulePath+".name", fmt.Sprintf("duplicate rule name %q", r.Name))
		}
		names[r.Name] = true
		if _, err := filters.Rules(nil, r); err != nil {
			result.Add(rulePath, err.Error())
		}
	}
}
