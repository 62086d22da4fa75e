// Package endpoint hosts a SOAP service behind an http.Handler.
//
// For every POST the endpoint negotiates a message encoder from the request
// content type, reads the envelope, resolves the target operation and runs the
// message filters. The terminal action of the message filters resolves the
// operation again from the (possibly replaced) message, obtains the service
// instance, decodes and binds arguments and runs the operation filters around
// the invocation. One-way operations are acknowledged with 202 Accepted.
//
// Errors from any stage are not handled where they occur. They reach a single
// fault boundary which renders them through the configured
// soap.FaultTransformer with the negotiated message version.
//
//	ep, err := endpoint.New(svc,
//		endpoint.WithPath("/Calculator.svc"),
//		endpoint.WithEncoders(soap.NewEncoder(soap.Soap12WSA10), soap.NewEncoder(soap.Soap11)),
//		endpoint.WithMessageFilters(filters.Logging(logger)),
//	)
//	http.Handle("/", ep.Wrap(http.NotFoundHandler()))
package endpoint
