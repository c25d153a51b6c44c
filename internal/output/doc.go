// Package output renders command reports as YAML or JSON.
//
// # Formats
//
//   - text (default): human-readable summaries written by each command
//   - yaml: self-documenting, same structure as JSON
//   - json: machine-readable, for CI and editor integrations
//
// # Density
//
// Three density levels control how much of a report is shown:
//
//   - sparse: counts only
//   - medium (default): everything that needs attention
//   - dense: every tracked file and entry, including unchanged ones
//
// Reports opt into density filtering by implementing Densifier; other
// values are encoded as they are.
package output
