package service

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"
)

// BodyWriter builds the response payload of an operation.
type BodyWriter interface {
	WriteBody(op *OperationDescription, result any, args []any) (*etree.Element, error)
}

// XMLBodyWriter writes wrapped document/literal responses:
//
//	<OpResponse xmlns="contract-ns">
//	  <OpResult>...</OpResult>
//	  <outParam>...</outParam>
//	</OpResponse>
//
// A nil result or out value is omitted.
type XMLBodyWriter struct{}

// WriteBody implements BodyWriter.
func (XMLBodyWriter) WriteBody(op *OperationDescription, result any, args []any) (*etree.Element, error) {
	root := etree.NewElement(op.Name + "Response")
	if op.Contract.Namespace != "" {
		root.CreateAttr("xmlns", op.Contract.Namespace)
	}

	if err := appendValue(root, op.ReturnName, result); err != nil {
		return nil, fmt.Errorf("encode %s: %w", op.ReturnName, err)
	}
	for _, p := range op.OutParameters() {
		if p.Index >= len(args) {
			continue
		}
		if err := appendValue(root, p.Name, args[p.Index]); err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.Name, err)
		}
	}
	return root, nil
}

func appendValue(parent *etree.Element, name string, v any) error {
	switch v := v.(type) {
	case nil:
		return nil
	case *etree.Element:
		el := parent.CreateElement(name)
		el.AddChild(v.Copy())
		return nil
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := enc.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: name}}); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(buf.Bytes()); err != nil {
		return err
	}
	if root := doc.Root(); root != nil {
		parent.AddChild(root)
	}
	return nil
}
