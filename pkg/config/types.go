package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/getmockd/soapd/pkg/filters"
	"github.com/getmockd/soapd/pkg/soap"
)

// CurrentVersion is the only supported configuration format version.
const CurrentVersion = "1"

// Binder names accepted in EndpointConfig.Binders.
const (
	BinderTrimStrings       = "trimStrings"
	BinderRequiredArguments = "requiredArguments"
)

// Config is the root of a soapd configuration file.
type Config struct {
	Version  string         `json:"version" yaml:"version"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Endpoint EndpointConfig `json:"endpoint" yaml:"endpoint"`
}

// ServerConfig configures the HTTP listener and the auxiliary routes.
type ServerConfig struct {
	// Listen is the TCP address, e.g. ":8080".
	Listen string `json:"listen" yaml:"listen"`

	ReadTimeout     Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout    Duration `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`

	// Inspection mounts the request log API under /__soapd/requests.
	Inspection bool `json:"inspection" yaml:"inspection"`

	// RequestLogCapacity bounds the in-memory request log.
	RequestLogCapacity int `json:"requestLogCapacity,omitempty" yaml:"requestLogCapacity,omitempty"`

	// Metrics mounts the Prometheus text endpoint under /metrics.
	Metrics bool `json:"metrics" yaml:"metrics"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level     string `json:"level,omitempty" yaml:"level,omitempty"`
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
	AddSource bool   `json:"addSource,omitempty" yaml:"addSource,omitempty"`
}

// EndpointConfig configures the SOAP endpoint.
type EndpointConfig struct {
	Path                string `json:"path" yaml:"path"`
	CaseInsensitivePath bool   `json:"caseInsensitivePath,omitempty" yaml:"caseInsensitivePath,omitempty"`

	// Versions lists the accepted message versions. The first one answers
	// requests whose content type matches none of them.
	Versions []string `json:"versions" yaml:"versions"`

	HTTPGetEnabled  bool `json:"httpGetEnabled" yaml:"httpGetEnabled"`
	HTTPSGetEnabled bool `json:"httpsGetEnabled" yaml:"httpsGetEnabled"`

	// WSDL is an inline metadata document; WSDLFile reads it from disk,
	// relative to the configuration file.
	WSDL     string `json:"wsdl,omitempty" yaml:"wsdl,omitempty"`
	WSDLFile string `json:"wsdlFile,omitempty" yaml:"wsdlFile,omitempty"`

	MaxBodySize        int64 `json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
	OmitXMLDeclaration bool  `json:"omitXmlDeclaration,omitempty" yaml:"omitXmlDeclaration,omitempty"`
	Indent             bool  `json:"indent,omitempty" yaml:"indent,omitempty"`

	// IncludeErrorDetail exposes internal error text in Server faults.
	IncludeErrorDetail bool `json:"includeErrorDetail,omitempty" yaml:"includeErrorDetail,omitempty"`

	// Prefixes overrides the namespace prefix per namespace URI.
	Prefixes map[string]string `json:"prefixes,omitempty" yaml:"prefixes,omitempty"`

	// Binders names the value binder providers in registration order.
	Binders []string `json:"binders,omitempty" yaml:"binders,omitempty"`

	Rules []filters.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Default returns the configuration used for absent fields.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Listen:             ":8080",
			ReadTimeout:        Duration(10 * time.Second),
			WriteTimeout:       Duration(10 * time.Second),
			ShutdownTimeout:    Duration(5 * time.Second),
			Inspection:         true,
			RequestLogCapacity: 1000,
			Metrics:            true,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Endpoint: EndpointConfig{
			Path:            "/",
			Versions:        []string{soap.Soap11.String()},
			HTTPGetEnabled:  true,
			HTTPSGetEnabled: true,
			MaxBodySize:     soap.DefaultMaxMessageSize,
		},
	}
}

// Duration is a time.Duration written as a Go duration string ("10s").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string such as \"10s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
