// Package util provides shared helpers for soapd packages.
//
// SafeFilePath and SafeFilePathAllowAbsolute vet configured file references
// such as endpoint.wsdlFile. TruncateBody caps envelopes stored in the request
// log.
package util
