// Package music provides the positional value types of a leadsheet.
//
// This package contains value types only. It imports nothing internal, so
// every other package can depend on it without cycles.
//
// Key design constraints:
//   - Beats are exact rationals, never floats: two positions that print the
//     same always compare equal
//   - Every value type is comparable with == (Beat is kept reduced)
//   - Ordering is total: bar first, then beat
package music
