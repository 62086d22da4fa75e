package soap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// DefaultMaxMessageSize bounds request envelopes (10MB).
const DefaultMaxMessageSize = 10 << 20

// ErrMessageTooLarge is returned when an envelope exceeds the encoder limit.
var ErrMessageTooLarge = errors.New("message exceeds maximum size")

// Encoder reads and writes envelopes of a single message version.
type Encoder struct {
	version            MessageVersion
	namespaces         *Namespaces
	omitXMLDeclaration bool
	indent             bool
	maxMessageSize     int64
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithNamespaces sets the prefix context used when writing envelopes.
func WithNamespaces(ns *Namespaces) EncoderOption {
	return func(e *Encoder) {
		if ns != nil {
			e.namespaces = ns
		}
	}
}

// WithOmitXMLDeclaration drops the <?xml?> declaration from written envelopes.
func WithOmitXMLDeclaration(omit bool) EncoderOption {
	return func(e *Encoder) { e.omitXMLDeclaration = omit }
}

// WithIndent indents written envelopes.
func WithIndent(indent bool) EncoderOption {
	return func(e *Encoder) { e.indent = indent }
}

// WithMaxMessageSize bounds the size of envelopes read by the encoder.
func WithMaxMessageSize(n int64) EncoderOption {
	return func(e *Encoder) {
		if n > 0 {
			e.maxMessageSize = n
		}
	}
}

// NewEncoder creates an encoder for version.
func NewEncoder(version MessageVersion, opts ...EncoderOption) *Encoder {
	e := &Encoder{
		version:        version,
		namespaces:     DefaultNamespaces(),
		maxMessageSize: DefaultMaxMessageSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Version returns the message version handled by the encoder.
func (e *Encoder) Version() MessageVersion { return e.version }

// Namespaces returns the prefix context of the encoder.
func (e *Encoder) Namespaces() *Namespaces { return e.namespaces }

// ContentType returns the content type of written envelopes.
func (e *Encoder) ContentType() string { return e.version.ContentType() }

// IsContentTypeSupported reports whether a request content type belongs to
// the encoder's envelope version.
func (e *Encoder) IsContentTypeSupported(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if e.version.Envelope == SOAP12 {
		return mediaType == soap12MediaType
	}
	return mediaType == soap11MediaType
}

// ReadMessage parses an envelope. The action is taken from the WS-Addressing
// Action header, then the SOAP 1.2 content type action parameter, then the
// SOAPAction header.
func (e *Encoder) ReadMessage(r io.Reader, header http.Header) (*Message, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.maxMessageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	if int64(len(data)) > e.maxMessageSize {
		return nil, ClientFault(ErrMessageTooLarge.Error())
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, ClientFault("invalid XML: " + err.Error())
	}

	root := doc.Root()
	if root == nil {
		return nil, ClientFault("empty document")
	}
	if root.Tag != "Envelope" {
		return nil, ClientFault("root element must be Envelope, got " + root.Tag)
	}
	if ns := root.NamespaceURI(); ns != e.version.Namespace() {
		return nil, &Fault{
			Code:    CodeVersionMismatch,
			Message: fmt.Sprintf("envelope namespace %q does not match SOAP %s", ns, e.version.Envelope),
		}
	}

	msg := &Message{Version: e.version}
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "Header":
			readHeaders(child, &msg.Headers)
		case "Body":
			if payload := child.ChildElements(); len(payload) > 0 {
				msg.Body = payload[0]
				msg.fault = payload[0].Tag == "Fault" && payload[0].NamespaceURI() == e.version.Namespace()
			}
		}
	}

	if msg.Headers.Action == "" {
		msg.Headers.Action = actionFromHTTP(header, e.version)
	}
	return msg, nil
}

func readHeaders(header *etree.Element, h *Headers) {
	for _, el := range header.ChildElements() {
		if el.NamespaceURI() != AddressingNamespace {
			h.Elements = append(h.Elements, el)
			continue
		}
		switch el.Tag {
		case "Action":
			h.Action = strings.TrimSpace(el.Text())
		case "MessageID":
			h.MessageID = strings.TrimSpace(el.Text())
		case "RelatesTo":
			h.RelatesTo = strings.TrimSpace(el.Text())
		case "To":
			h.To = strings.TrimSpace(el.Text())
		case "ReplyTo":
			if addr := el.SelectElement("Address"); addr != nil {
				h.ReplyTo = strings.TrimSpace(addr.Text())
			}
		default:
			h.Elements = append(h.Elements, el)
		}
	}
}

// actionFromHTTP extracts the action from transport headers.
func actionFromHTTP(header http.Header, version MessageVersion) string {
	if header == nil {
		return ""
	}
	if version.Envelope == SOAP12 {
		if _, params, err := mime.ParseMediaType(header.Get("Content-Type")); err == nil {
			if action := params["action"]; action != "" {
				return action
			}
		}
	}
	return strings.Trim(header.Get("SOAPAction"), "\"")
}

// WriteMessage serializes m as an envelope of the encoder's version.
func (e *Encoder) WriteMessage(w io.Writer, m *Message) error {
	doc := e.document(m)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Marshal returns the serialized envelope of m.
func (e *Encoder) Marshal(m *Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.WriteMessage(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) document(m *Message) *etree.Document {
	envNS := e.version.Namespace()
	prefix := e.namespaces.Prefix(envNS)
	if prefix == "" {
		prefix = "soap"
	}

	doc := etree.NewDocument()
	if !e.omitXMLDeclaration {
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	}
	env := doc.CreateElement(prefix + ":Envelope")
	env.CreateAttr("xmlns:"+prefix, envNS)

	var header *etree.Element
	headerElem := func() *etree.Element {
		if header == nil {
			header = env.CreateElement(prefix + ":Header")
		}
		return header
	}

	if e.version.UsesAddressing() {
		wsa := e.namespaces.Prefix(AddressingNamespace)
		if wsa == "" {
			wsa = "wsa"
		}
		add := func(name, value string) {
			if value == "" {
				return
			}
			h := headerElem()
			if h.SelectAttr("xmlns:"+wsa) == nil {
				h.CreateAttr("xmlns:"+wsa, AddressingNamespace)
			}
			h.CreateElement(wsa + ":" + name).SetText(value)
		}
		add("Action", m.Headers.Action)
		add("MessageID", m.Headers.MessageID)
		add("RelatesTo", m.Headers.RelatesTo)
		add("To", m.Headers.To)
	}
	for _, el := range m.Headers.Elements {
		headerElem().AddChild(DetachElement(el))
	}

	body := env.CreateElement(prefix + ":Body")
	if m.Body != nil {
		body.AddChild(DetachElement(m.Body))
	}

	if e.indent {
		doc.Indent(2)
	}
	return doc
}
