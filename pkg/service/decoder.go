package service

import (
	"encoding/xml"
	"net/http"
	"reflect"

	"github.com/beevik/etree"
	"github.com/getmockd/soapd/pkg/soap"
)

var (
	requestType = reflect.TypeFor[*http.Request]()
	elementType = reflect.TypeFor[*etree.Element]()
)

// ArgumentDecoder turns a request message into the argument array of an
// operation. The returned slice has one slot per declared parameter.
type ArgumentDecoder interface {
	Decode(msg *soap.Message, op *OperationDescription, r *http.Request) ([]any, error)
}

// XMLArgumentDecoder decodes wrapped document/literal payloads: each input
// parameter is a child element of the body payload named after the parameter.
//
// Missing elements leave their slot nil. *http.Request parameters receive the
// transport request, *etree.Element parameters the raw element, and every
// other type is decoded with encoding/xml. Out parameters start as the zero
// value of their type.
type XMLArgumentDecoder struct{}

// Decode implements ArgumentDecoder.
func (XMLArgumentDecoder) Decode(msg *soap.Message, op *OperationDescription, r *http.Request) ([]any, error) {
	args := make([]any, len(op.Parameters))
	for _, p := range op.Parameters {
		if p.Type == requestType {
			args[p.Index] = r
			continue
		}
		if p.Direction == DirectionOut {
			args[p.Index] = reflect.Zero(p.Type).Interface()
			continue
		}

		el := findParameter(msg.Body, p)
		if el == nil {
			continue
		}
		v, err := decodeElement(el, p.Type)
		if err != nil {
			return nil, soap.ClientFault("invalid value for parameter " + p.Name + ": " + err.Error())
		}
		args[p.Index] = v
	}
	return args, nil
}

func findParameter(body *etree.Element, p ParameterInfo) *etree.Element {
	if body == nil {
		return nil
	}
	for _, child := range body.ChildElements() {
		if child.Tag != p.Name {
			continue
		}
		if ns := child.NamespaceURI(); ns != "" && p.Namespace != "" && ns != p.Namespace {
			continue
		}
		return child
	}
	return nil
}

func decodeElement(el *etree.Element, typ reflect.Type) (any, error) {
	if typ == elementType {
		return soap.DetachElement(el), nil
	}

	doc := etree.NewDocument()
	doc.SetRoot(soap.DetachElement(el))
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, err
	}

	ptr := reflect.New(typ)
	if err := xml.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
