package soap

import (
	"net/http"

	"github.com/beevik/etree"
)

// HTTPResponsePropertyName is the Properties key of an *HTTPResponseProperty.
const HTTPResponsePropertyName = "httpResponse"

// Headers holds the addressing headers of a message plus any other header
// blocks, which are kept as raw elements.
type Headers struct {
	Action    string
	MessageID string
	RelatesTo string
	ReplyTo   string
	To        string

	// Elements are the non-addressing header blocks in document order.
	Elements []*etree.Element
}

// Find returns the first header block with the given local name.
func (h *Headers) Find(localName string) *etree.Element {
	for _, el := range h.Elements {
		if el.Tag == localName {
			return el
		}
	}
	return nil
}

// HTTPResponseProperty lets a message override the transport response
// it is written to.
type HTTPResponseProperty struct {
	StatusCode        int
	StatusDescription string
	Header            http.Header
}

// Message is a SOAP message: addressing headers, header blocks and a single
// body payload element.
type Message struct {
	Version MessageVersion
	Headers Headers

	// Body is the payload element inside soap:Body. Nil means an empty body.
	Body *etree.Element

	// Properties carry out-of-band data such as the HTTP response property.
	Properties map[string]any

	fault bool
}

// NewMessage creates a message with the given action and body payload.
func NewMessage(version MessageVersion, action string, body *etree.Element) *Message {
	return &Message{
		Version: version,
		Headers: Headers{Action: action},
		Body:    body,
	}
}

// IsFault reports whether the message carries a fault body.
func (m *Message) IsFault() bool {
	return m.fault
}

// BodyName returns the local name of the body payload element.
func (m *Message) BodyName() string {
	if m.Body == nil {
		return ""
	}
	return m.Body.Tag
}

// BodyNamespace returns the namespace URI of the body payload element.
func (m *Message) BodyNamespace() string {
	if m.Body == nil {
		return ""
	}
	return m.Body.NamespaceURI()
}

// SetProperty stores an out-of-band property on the message.
func (m *Message) SetProperty(key string, value any) {
	if m.Properties == nil {
		m.Properties = make(map[string]any)
	}
	m.Properties[key] = value
}

// HTTPResponse returns the HTTP response property, if any.
func (m *Message) HTTPResponse() *HTTPResponseProperty {
	if m.Properties == nil {
		return nil
	}
	p, _ := m.Properties[HTTPResponsePropertyName].(*HTTPResponseProperty)
	return p
}

// SetHTTPResponse attaches an HTTP response property.
func (m *Message) SetHTTPResponse(p *HTTPResponseProperty) {
	m.SetProperty(HTTPResponsePropertyName, p)
}
