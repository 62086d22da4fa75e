package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/getmockd/soapd/pkg/endpoint"
	"github.com/getmockd/soapd/pkg/extensibility"
	"github.com/getmockd/soapd/pkg/filters"
	"github.com/getmockd/soapd/pkg/logging"
	"github.com/getmockd/soapd/pkg/soap"
)

// LoggingConfig converts the log section into a logging.Config writing to w.
func (l LogConfig) LoggingConfig(w io.Writer) (logging.Config, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return logging.Config{}, err
	}
	format, err := logging.ParseFormat(l.Format)
	if err != nil {
		return logging.Config{}, err
	}
	return logging.Config{Level: level, Format: format, Output: w, AddSource: l.AddSource}, nil
}

// MessageVersions returns the configured versions in order.
func (e EndpointConfig) MessageVersions() ([]soap.MessageVersion, error) {
	out := make([]soap.MessageVersion, 0, len(e.Versions))
	for _, name := range e.Versions {
		v, err := soap.ParseMessageVersion(name)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Encoders builds one encoder per configured message version.
func (e EndpointConfig) Encoders() ([]*soap.Encoder, error) {
	versions, err := e.MessageVersions()
	if err != nil {
		return nil, err
	}

	ns := soap.DefaultNamespaces()
	for uri, prefix := range e.Prefixes {
		ns = ns.WithPrefix(uri, prefix)
	}
	opts := []soap.EncoderOption{
		soap.WithNamespaces(ns),
		soap.WithOmitXMLDeclaration(e.OmitXMLDeclaration),
		soap.WithIndent(e.Indent),
	}
	if e.MaxBodySize > 0 {
		opts = append(opts, soap.WithMaxMessageSize(e.MaxBodySize))
	}

	encoders := make([]*soap.Encoder, len(versions))
	for i, v := range versions {
		encoders[i] = soap.NewEncoder(v, opts...)
	}
	return encoders, nil
}

// LoadWSDL returns the inline document or reads WSDLFile. Both empty yields
// nil.
func (e EndpointConfig) LoadWSDL() ([]byte, error) {
	if e.WSDL != "" {
		return []byte(e.WSDL), nil
	}
	if e.WSDLFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(e.WSDLFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read wsdl file: %w", err)
	}
	return data, nil
}

// ValueBinders returns the configured binder providers in order.
func (e EndpointConfig) ValueBinders() []extensibility.ValueBinderProvider {
	out := make([]extensibility.ValueBinderProvider, 0, len(e.Binders))
	for _, name := range e.Binders {
		switch name {
		case BinderTrimStrings:
			out = append(out, filters.TrimStrings())
		case BinderRequiredArguments:
			out = append(out, filters.RequiredArguments())
		}
	}
	return out
}

// Options translates the endpoint section into endpoint options. The logging
// filter always runs first; configured rules run after it.
func (e EndpointConfig) Options(logger *slog.Logger) ([]endpoint.Option, error) {
	encoders, err := e.Encoders()
	if err != nil {
		return nil, err
	}
	wsdl, err := e.LoadWSDL()
	if err != nil {
		return nil, err
	}

	messageFilters := []extensibility.MessageFilter{filters.Logging(logger)}
	if len(e.Rules) > 0 {
		rules, err := filters.Rules(logger, e.Rules...)
		if err != nil {
			return nil, err
		}
		messageFilters = append(messageFilters, rules)
	}

	return []endpoint.Option{
		endpoint.WithPath(e.Path),
		endpoint.WithCaseInsensitivePath(e.CaseInsensitivePath),
		endpoint.WithEncoders(encoders...),
		endpoint.WithMetadata(e.HTTPGetEnabled, e.HTTPSGetEnabled),
		endpoint.WithWSDL(wsdl),
		endpoint.WithMaxBodySize(e.MaxBodySize),
		endpoint.WithFaultTransformer(soap.DefaultFaultTransformer{IncludeErrorDetail: e.IncludeErrorDetail}),
		endpoint.WithMessageFilters(messageFilters...),
		endpoint.WithOperationFilters(filters.Timing(logger)),
		endpoint.WithValueBinders(e.ValueBinders()...),
		endpoint.WithLogger(logger),
	}, nil
}
