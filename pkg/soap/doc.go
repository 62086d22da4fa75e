// Package soap provides the SOAP message model used by the soapd endpoint.
//
// It covers SOAP 1.1 and SOAP 1.2 envelopes, optionally combined with
// WS-Addressing 1.0 headers, and the fault shapes of both versions.
//
// # Messages
//
// A Message holds addressing headers, any other header blocks as raw etree
// elements, and a single body payload element:
//
//	body := etree.NewElement("AddResponse")
//	body.CreateAttr("xmlns", "http://example.com/calculator")
//	body.CreateElement("AddResult").SetText("5")
//
//	msg := soap.NewMessage(soap.Soap11, "http://example.com/calculator/AddResponse", body)
//
// Out-of-band data travels in Message.Properties. The HTTPResponseProperty
// stored under HTTPResponsePropertyName overrides the status code and headers
// of the HTTP response the message is written to.
//
// # Encoders
//
// An Encoder reads and writes envelopes of one MessageVersion. The action of
// an incoming message is taken from the WS-Addressing Action header, falling
// back to the SOAP 1.2 content type action parameter and then the SOAPAction
// header. Non-UTF-8 request envelopes are decoded through their declared
// charset.
//
//	enc := soap.NewEncoder(soap.Soap12WSA10, soap.WithIndent(true))
//	msg, err := enc.ReadMessage(r.Body, r.Header)
//
// # Faults
//
// Fault implements error. Any layer may return a *Fault to control the fault
// written to the client; DefaultFaultTransformer reports every other error as
// a Server (SOAP 1.1) or Receiver (SOAP 1.2) fault:
//
//	return soap.ClientFault("divisor must not be zero")
//
// # XPath
//
// ExtractXPath reads values relative to the body payload:
//
//	a := msg.ExtractXPath("a")
//	id := msg.ExtractXPath("//order/@id")
package soap
