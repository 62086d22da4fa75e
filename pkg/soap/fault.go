package soap

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// Canonical fault codes. They are written as-is for SOAP 1.1 and translated
// for SOAP 1.2 (Client -> Sender, Server -> Receiver).
const (
	CodeClient          = "Client"
	CodeServer          = "Server"
	CodeVersionMismatch = "VersionMismatch"
	CodeMustUnderstand  = "MustUnderstand"
)

// Fault is an error carrying the shape of a SOAP fault. Returning a *Fault
// from anywhere in the pipeline controls the fault written to the client.
type Fault struct {
	Code    string `json:"code" yaml:"code"`       // Client, Server (soap: prefix optional)
	Message string `json:"message" yaml:"message"` // Human readable error
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`

	// Subcode is written as the SOAP 1.2 Subcode value.
	Subcode string `json:"subcode,omitempty" yaml:"subcode,omitempty"`

	// StatusCode overrides the HTTP status of the fault response when non-zero.
	StatusCode int `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return "soap fault " + f.Code + ": " + f.Message
}

// ClientFault returns a fault blaming the sender.
func ClientFault(message string) *Fault {
	return &Fault{Code: CodeClient, Message: message}
}

// ServerFault returns a fault blaming the receiver.
func ServerFault(message string) *Fault {
	return &Fault{Code: CodeServer, Message: message}
}

// NewFaultMessage builds a fault message for version.
func NewFaultMessage(version MessageVersion, ns *Namespaces, fault *Fault) *Message {
	var body *etree.Element
	if version.Envelope == SOAP12 {
		body = buildFault12(ns, fault)
	} else {
		body = buildFault11(ns, fault)
	}

	msg := NewMessage(version, "", body)
	msg.fault = true
	if fault.StatusCode != 0 {
		msg.SetHTTPResponse(&HTTPResponseProperty{StatusCode: fault.StatusCode})
	}
	return msg
}

func faultElement(ns *Namespaces, envNS string) (*etree.Element, string) {
	prefix := ns.Prefix(envNS)
	if prefix == "" {
		prefix = "soap"
	}
	el := etree.NewElement(prefix + ":Fault")
	el.CreateAttr("xmlns:"+prefix, envNS)
	return el, prefix
}

func localCode(code string) string {
	for i := len(code) - 1; i >= 0; i-- {
		if code[i] == ':' {
			return code[i+1:]
		}
	}
	return code
}

// buildFault11 builds a SOAP 1.1 fault body.
func buildFault11(ns *Namespaces, fault *Fault) *etree.Element {
	el, prefix := faultElement(ns, SOAP11Namespace)
	el.CreateElement("faultcode").SetText(prefix + ":" + localCode(fault.Code))
	el.CreateElement("faultstring").SetText(fault.Message)
	if fault.Detail != "" {
		appendDetail(el.CreateElement("detail"), fault.Detail)
	}
	return el
}

// buildFault12 builds a SOAP 1.2 fault body.
func buildFault12(ns *Namespaces, fault *Fault) *etree.Element {
	// Map common fault codes to SOAP 1.2 codes
	code := localCode(fault.Code)
	switch code {
	case CodeClient:
		code = "Sender"
	case CodeServer:
		code = "Receiver"
	}

	el, prefix := faultElement(ns, SOAP12Namespace)
	codeEl := el.CreateElement(prefix + ":Code")
	codeEl.CreateElement(prefix + ":Value").SetText(prefix + ":" + code)
	if fault.Subcode != "" {
		codeEl.CreateElement(prefix + ":Subcode").CreateElement(prefix + ":Value").SetText(fault.Subcode)
	}
	text := el.CreateElement(prefix + ":Reason").CreateElement(prefix + ":Text")
	text.CreateAttr("xml:lang", "en")
	text.SetText(fault.Message)
	if fault.Detail != "" {
		appendDetail(el.CreateElement(prefix+":Detail"), fault.Detail)
	}
	return el
}

// appendDetail adds detail as XML content when it parses, as text otherwise.
func appendDetail(parent *etree.Element, detail string) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString("<detail>" + detail + "</detail>"); err != nil {
		parent.SetText(detail)
		return
	}
	children := append([]etree.Token(nil), doc.Root().Child...)
	for _, child := range children {
		parent.AddChild(child)
	}
}

// FaultTransformer turns an error into a fault message.
type FaultTransformer interface {
	ProvideFault(err error, version MessageVersion, ns *Namespaces) *Message
}

// FaultTransformerFunc adapts a function to FaultTransformer.
type FaultTransformerFunc func(err error, version MessageVersion, ns *Namespaces) *Message

// ProvideFault calls f.
func (f FaultTransformerFunc) ProvideFault(err error, version MessageVersion, ns *Namespaces) *Message {
	return f(err, version, ns)
}

// DefaultFaultTransformer dispatches on *Fault and reports every other error
// as a receiver fault.
type DefaultFaultTransformer struct {
	// IncludeErrorDetail exposes the error text of non-fault errors.
	IncludeErrorDetail bool
}

const internalErrorMessage = "The server was unable to process the request due to an internal error."

// ProvideFault implements FaultTransformer.
func (t DefaultFaultTransformer) ProvideFault(err error, version MessageVersion, ns *Namespaces) *Message {
	var fault *Fault
	if !errors.As(err, &fault) {
		msg := internalErrorMessage
		if t.IncludeErrorDetail && err != nil {
			msg = err.Error()
		}
		fault = ServerFault(msg)
	}
	return NewFaultMessage(version, ns, fault)
}

// StatusCode returns the HTTP status a message should be written with,
// falling back to def when the message carries no override.
func StatusCode(m *Message, def int) int {
	if p := m.HTTPResponse(); p != nil && p.StatusCode != 0 {
		return p.StatusCode
	}
	return def
}

// FaultCode returns the local fault code written in a fault message body,
// e.g. "Client" or "Sender". It returns "" for non-fault messages.
func FaultCode(m *Message) string {
	if m == nil || !m.IsFault() || m.Body == nil {
		return ""
	}
	if el := m.Body.SelectElement("faultcode"); el != nil {
		return localCode(strings.TrimSpace(el.Text()))
	}
	if el := m.Body.FindElement("Code/Value"); el != nil {
		return localCode(strings.TrimSpace(el.Text()))
	}
	return ""
}
