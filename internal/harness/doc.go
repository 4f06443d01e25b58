// Package harness runs leadsheet edit scenarios.
//
// A scenario builds a leadsheet, applies a list of edit steps with their
// expected outcome, then checks assertions against the final state. The
// run produces a trace (one entry per step with the events it committed)
// that can be compared with a golden file.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: delete_promotes_section
//	description: "Deleting bar 0 promotes the next section"
//	leadsheet:
//	  section: A
//	  time_signature: "4/4"
//	  size: 8
//	steps:
//	  - op: add_section
//	    name: B
//	    bar: 1
//	  - op: delete_bars
//	    from: 0
//	    through: 0
//	    expect: applied
//	assertions:
//	  - type: size
//	    value: 7
//	  - type: section_at
//	    bar: 0
//	    name: B
//
// Positions are written "bar:beat" with beats as integers, decimals or
// fractions ("1:3", "2:3.5", "0:7/2").
//
// # Steps
//
// Every leadsheet operation has a step: add_item, remove_item, move_item,
// change_item, add_section, remove_section, set_section_name,
// set_section_time_signature, move_section, insert_bars, delete_bars and
// set_size. Undo history is driven by begin_edit, end_edit, undo and redo.
// veto makes a listener refuse every following edit until allow.
//
// Each step may state its outcome with expect: applied (the default),
// rejected, invalid or vetoed.
//
// # Assertion Types
//
//   - size: the leadsheet has value bars
//   - item_count: the leadsheet holds value items (optionally of kind)
//   - section_at: the section governing bar has the given name and time signature
//   - items_at_bar: the ordinary items of bar, in order
//   - dump: the whole leadsheet in Dump form
//
// # Deterministic Testing
//
// Item IDs come from the Store's own counter and operations are stamped by
// its logical clock, so traces are identical across runs.
package harness
