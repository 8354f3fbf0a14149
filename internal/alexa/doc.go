// Package alexa defines the Alexa Smart Home wire contract consumed and
// produced by the bridge.
//
// It contains:
//   - The inbound directive envelope (header, endpoint reference, payload)
//   - The outbound event envelope (success, error, discovery, state report)
//   - The platform error-type taxonomy and the DirectiveError domain error
//   - Context-property assembly helpers
//
// The shapes here are fixed by the Alexa Smart Home API (payload version 3)
// and must not be changed to suit internal convenience; translation between
// these types and the endpoint model happens in the directive package.
package alexa
