package soap

import (
	"fmt"
	"strings"
)

// SOAPVersion represents the SOAP envelope version.
type SOAPVersion string

const (
	// SOAP11 represents SOAP 1.1 protocol.
	SOAP11 SOAPVersion = "1.1"
	// SOAP12 represents SOAP 1.2 protocol.
	SOAP12 SOAPVersion = "1.2"
)

// SOAP namespace URIs
const (
	SOAP11Namespace = "http://schemas.xmlsoap.org/soap/envelope/"
	SOAP12Namespace = "http://www.w3.org/2003/05/soap-envelope"

	// AddressingNamespace is the WS-Addressing 1.0 namespace.
	AddressingNamespace = "http://www.w3.org/2005/08/addressing"
)

// ContentTypes for SOAP versions
const (
	SOAP11ContentType = "text/xml; charset=utf-8"
	SOAP12ContentType = "application/soap+xml; charset=utf-8"

	soap11MediaType = "text/xml"
	soap12MediaType = "application/soap+xml"
)

// AddressingVersion identifies the addressing scheme layered on the envelope.
type AddressingVersion string

const (
	// AddressingNone carries no addressing headers.
	AddressingNone AddressingVersion = ""
	// WSAddressing10 is WS-Addressing 1.0.
	WSAddressing10 AddressingVersion = "wsa10"
)

// MessageVersion pairs an envelope version with an addressing version.
type MessageVersion struct {
	Envelope   SOAPVersion
	Addressing AddressingVersion
}

// Predefined message versions.
var (
	Soap11      = MessageVersion{Envelope: SOAP11}
	Soap12      = MessageVersion{Envelope: SOAP12}
	Soap11WSA10 = MessageVersion{Envelope: SOAP11, Addressing: WSAddressing10}
	Soap12WSA10 = MessageVersion{Envelope: SOAP12, Addressing: WSAddressing10}
)

// Namespace returns the envelope namespace URI.
func (v MessageVersion) Namespace() string {
	if v.Envelope == SOAP12 {
		return SOAP12Namespace
	}
	return SOAP11Namespace
}

// ContentType returns the HTTP content type for the envelope version.
func (v MessageVersion) ContentType() string {
	if v.Envelope == SOAP12 {
		return SOAP12ContentType
	}
	return SOAP11ContentType
}

// UsesAddressing reports whether correlation headers are written.
func (v MessageVersion) UsesAddressing() bool {
	return v.Addressing == WSAddressing10
}

// String returns the configuration name of the version, e.g. "soap12-wsa10".
func (v MessageVersion) String() string {
	s := "soap11"
	if v.Envelope == SOAP12 {
		s = "soap12"
	}
	if v.Addressing != AddressingNone {
		s += "-" + string(v.Addressing)
	}
	return s
}

// ParseMessageVersion parses a configuration name produced by String.
func ParseMessageVersion(s string) (MessageVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "soap11", "1.1":
		return Soap11, nil
	case "soap12", "1.2":
		return Soap12, nil
	case "soap11-wsa10":
		return Soap11WSA10, nil
	case "soap12-wsa10":
		return Soap12WSA10, nil
	default:
		return MessageVersion{}, fmt.Errorf("unknown message version %q", s)
	}
}

// Namespaces maps namespace URIs to the prefixes used when writing envelopes.
// A Namespaces value is immutable once shared; WithPrefix returns a copy.
type Namespaces struct {
	prefixes map[string]string
}

// DefaultNamespaces returns the default prefix context.
func DefaultNamespaces() *Namespaces {
	return &Namespaces{prefixes: map[string]string{
		SOAP11Namespace:     "soap",
		SOAP12Namespace:     "soap",
		AddressingNamespace: "wsa",
	}}
}

// WithPrefix returns a copy of n using prefix for uri.
func (n *Namespaces) WithPrefix(uri, prefix string) *Namespaces {
	out := &Namespaces{prefixes: make(map[string]string, len(n.prefixes)+1)}
	for k, v := range n.prefixes {
		out.prefixes[k] = v
	}
	out.prefixes[uri] = prefix
	return out
}

// Prefix returns the prefix registered for uri, or an empty string.
func (n *Namespaces) Prefix(uri string) string {
	if n == nil {
		return ""
	}
	return n.prefixes[uri]
}
