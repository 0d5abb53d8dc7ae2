// Package simpledeck provides the client-side core for managing presentation
// documents stored in a remote document service.
//
// Two owned state containers make up the core:
//
//   - Catalog holds the list of known documents. It is only ever replaced as a
//     whole by a successful fetch and drives refreshes after uploads and
//     deletes.
//   - Session tracks the document currently being previewed and the single
//     transient resource (a retrieved blob or an embedded-viewer frame) tied
//     to that selection.
//
// Both talk to the remote service through the Gateway interface. An HTTP
// implementation lives in the gateway subpackage, blob stores for retrieved
// documents live under storage, and a reference implementation of the remote
// service lives under store and api.
//
// Preview Modes
//
// A selected document can be previewed by fetching its bytes directly
// (ChooseDirectFetch), by loading an embedded external viewer
// (ChooseEmbeddedViewer), or by handing the document URL to an external
// viewer service in an independent context (ChooseExternalService). The
// document format itself is never parsed.
package simpledeck
