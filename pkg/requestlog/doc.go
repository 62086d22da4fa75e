// Package requestlog provides types and interfaces for capturing and storing
// SOAP exchanges for user inspection and debugging.
//
// It is distinct from operational logging (which uses log/slog): entries
// record what envelopes came in, which operation they resolved to, and what
// was sent back.
//
// # Usage
//
// The endpoint creates an Entry per exchange and passes it to a Logger. The
// inspection API queries a Store:
//
//	store := requestlog.NewMemoryStore(1000)
//	store.Log(&requestlog.Entry{
//	    Method: "POST",
//	    Path:   "/calculator",
//	    SOAP:   &requestlog.SOAPMeta{Operation: "Add", MessageVersion: "soap11"},
//	})
//
//	faults := store.List(&requestlog.Filter{Fault: ptr(true)})
//
// Handler serves a Store as the JSON inspection API, including a
// server-sent event stream of new entries for a SubscribableStore:
//
//	mux.Handle(requestlog.DefaultPrefix+"/", requestlog.NewHandler(requestlog.DefaultPrefix, store))
//
// # Package Design
//
// Apart from httputil the package has no internal dependencies, so the
// endpoint can import it without creating cycles.
package requestlog
