package requestlog

import "time"

// Entry captures complete details of a SOAP exchange for debugging and inspection.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// Path is the request URL path.
	Path string `json:"path"`

	// QueryString is the raw query string.
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers (multi-value).
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the request envelope (truncated if > 10KB).
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	// RemoteAddr is the client address.
	RemoteAddr string `json:"remoteAddr"`

	// ResponseStatus is the HTTP status returned.
	ResponseStatus int `json:"responseStatus"`

	// ResponseBody is the response envelope (truncated if > 10KB).
	ResponseBody string `json:"responseBody,omitempty"`

	// DurationMs is the request processing time in milliseconds.
	DurationMs int `json:"durationMs"`

	// Error contains the error that produced a fault, if any.
	Error string `json:"error,omitempty"`

	SOAP *SOAPMeta `json:"soap,omitempty"`
}

// SOAPMeta contains SOAP-specific exchange metadata.
type SOAPMeta struct {
	// Operation is the resolved operation name, empty when resolution failed.
	Operation string `json:"operation,omitempty"`

	// Contract is the contract the operation belongs to.
	Contract string `json:"contract,omitempty"`

	// Action is the request action.
	Action string `json:"action,omitempty"`

	// MessageVersion is the negotiated message version, e.g. soap12-wsa10.
	MessageVersion string `json:"messageVersion"`

	// MessageID is the WS-Addressing message id of the request.
	MessageID string `json:"messageId,omitempty"`

	// OneWay indicates the exchange was acknowledged without a response.
	OneWay bool `json:"oneWay,omitempty"`

	// IsFault indicates the response is a SOAP fault.
	IsFault bool `json:"isFault,omitempty"`

	// FaultCode is the fault code (if fault).
	FaultCode string `json:"faultCode,omitempty"`
}
