// Package items provides the REST client for the automation server's item
// API.
//
// The bridge treats the automation server as the single source of truth:
// item definitions, capability metadata, and live state all come from this
// API, and every voice command ends as a plain-text command post against an
// item.
//
// Endpoints consumed:
//   - GET  /items                    item list with metadata and members
//   - GET  /items/{name}             single item with current state
//   - GET  /items/{name}/state       plain-text current state
//   - POST /items/{name}             plain-text command
//   - GET  /services/{id}/config     regional settings (measurement system)
//
// Authentication is per request: the directive's scope token is forwarded
// as a bearer credential, or static basic credentials are used when the
// deployment fronts the server with its own auth.
//
// Thread Safety: the client is safe for concurrent use; it holds no mutable
// state beyond the shared http.Client.
package items
