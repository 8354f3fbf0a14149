// Package capability implements the Alexa capability model: metadata
// parsing, the capability registry, and bidirectional property
// normalisation.
//
// The model has three layers:
//
//   - Descriptor: the raw result of parsing an item's capability metadata
//     string ("ThermostatController.upperSetpoint", plus configuration).
//   - PropertySchema: the registry's static description of one capability
//     property: accepted item kinds, default state maps and ranges, enum
//     allowlists, and optional conversion functions.
//   - Property / Capability: the resolved, per-endpoint model built by the
//     endpoint package, carrying everything a directive handler needs.
//
// Normalisation between native item state and Alexa typed values goes
// through ToAlexa and ToNative. Resolution order: a schema conversion
// function when one is declared, otherwise the property's resolved state
// map, otherwise numeric passthrough.
package capability
