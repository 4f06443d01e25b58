package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario defines an edit scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description says which behavior the scenario pins down.
	Description string `yaml:"description"`

	// Leadsheet is the initial leadsheet.
	Leadsheet Initial `yaml:"leadsheet"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`

	// UndoStress undoes every edit, redoes them and undoes them again after
	// the steps, checking each round trip restores the same leadsheet.
	UndoStress bool `yaml:"undo_stress,omitempty"`
}

// Initial describes the leadsheet a scenario starts from.
type Initial struct {
	Section       string `yaml:"section"`
	TimeSignature string `yaml:"time_signature"`
	Size          int    `yaml:"size"`
}

// Step is one edit. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// Ordinary item, identified by payload and position.
	Chord      string `yaml:"chord,omitempty"`
	Annotation string `yaml:"annotation,omitempty"`
	At         string `yaml:"at,omitempty"`
	To         string `yaml:"to,omitempty"`  // move_item target
	New        string `yaml:"new,omitempty"` // change_item payload text

	// Section, identified by name.
	Section       string `yaml:"section,omitempty"`
	Name          string `yaml:"name,omitempty"`
	TimeSignature string `yaml:"time_signature,omitempty"`

	Bar     int `yaml:"bar,omitempty"`
	Count   int `yaml:"count,omitempty"`
	From    int `yaml:"from,omitempty"`
	Through int `yaml:"through,omitempty"`
	Size    int `yaml:"size,omitempty"`

	Reason string `yaml:"reason,omitempty"` // veto

	// Expect is the expected outcome; empty means applied.
	Expect string `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpAddItem                 = "add_item"
	OpRemoveItem              = "remove_item"
	OpMoveItem                = "move_item"
	OpChangeItem              = "change_item"
	OpAddSection              = "add_section"
	OpRemoveSection           = "remove_section"
	OpSetSectionName          = "set_section_name"
	OpSetSectionTimeSignature = "set_section_time_signature"
	OpMoveSection             = "move_section"
	OpInsertBars              = "insert_bars"
	OpDeleteBars              = "delete_bars"
	OpSetSize                 = "set_size"
	OpBeginEdit               = "begin_edit"
	OpEndEdit                 = "end_edit"
	OpUndo                    = "undo"
	OpRedo                    = "redo"
	OpVeto                    = "veto"
	OpAllow                   = "allow"
)

// Step outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeInvalid  = "invalid"
	OutcomeVetoed   = "vetoed"
)

var itemOps = []string{OpAddItem, OpRemoveItem, OpMoveItem, OpChangeItem}

var sectionOps = []string{OpRemoveSection, OpSetSectionName, OpSetSectionTimeSignature, OpMoveSection}

var knownOps = append(append(slices.Clone(itemOps), sectionOps...),
	OpAddSection, OpInsertBars, OpDeleteBars, OpSetSize,
	OpBeginEdit, OpEndEdit, OpUndo, OpRedo, OpVeto, OpAllow)

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "size": Value bars
	// - "item_count": Value items, of Kind when set
	// - "section_at": section governing Bar is Name / TimeSignature
	// - "items_at_bar": ordinary items of Bar are Items
	// - "dump": Dump output equals Dump
	Type string `yaml:"type"`

	Value         int      `yaml:"value,omitempty"`
	Kind          string   `yaml:"kind,omitempty"`
	Bar           int      `yaml:"bar,omitempty"`
	Name          string   `yaml:"name,omitempty"`
	TimeSignature string   `yaml:"time_signature,omitempty"`
	Items         []string `yaml:"items,omitempty"`
	Dump          string   `yaml:"dump,omitempty"`
}

// Assertion type constants.
const (
	AssertSize       = "size"
	AssertItemCount  = "item_count"
	AssertSectionAt  = "section_at"
	AssertItemsAtBar = "items_at_bar"
	AssertDump       = "dump"
)

// LoadScenario reads the scenario file at path. See ParseScenario.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Unknown keys are errors.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
// Values the Store itself checks (bar ranges, time signatures) are left to
// the run, where they surface as the invalid outcome.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Leadsheet.Section == "" {
		return fmt.Errorf("leadsheet.section is required")
	}
	if s.Leadsheet.Size == 0 {
		return fmt.Errorf("leadsheet.size is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	if st.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	if !slices.Contains(knownOps, st.Op) {
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	switch st.Expect {
	case "", OutcomeApplied, OutcomeRejected, OutcomeInvalid, OutcomeVetoed:
	default:
		return fmt.Errorf("steps[%d]: unknown expect %q", index, st.Expect)
	}

	if slices.Contains(itemOps, st.Op) {
		if (st.Chord == "") == (st.Annotation == "") {
			return fmt.Errorf("steps[%d]: %s needs exactly one of chord or annotation", index, st.Op)
		}
		if st.At == "" {
			return fmt.Errorf("steps[%d]: at is required for %s", index, st.Op)
		}
	}
	if slices.Contains(sectionOps, st.Op) && st.Section == "" {
		return fmt.Errorf("steps[%d]: section is required for %s", index, st.Op)
	}

	switch st.Op {
	case OpMoveItem:
		if st.To == "" {
			return fmt.Errorf("steps[%d]: to is required for move_item", index)
		}
	case OpChangeItem:
		if st.New == "" {
			return fmt.Errorf("steps[%d]: new is required for change_item", index)
		}
	case OpAddSection, OpSetSectionName:
		if st.Name == "" {
			return fmt.Errorf("steps[%d]: name is required for %s", index, st.Op)
		}
	case OpSetSectionTimeSignature:
		if st.TimeSignature == "" {
			return fmt.Errorf("steps[%d]: time_signature is required for %s", index, st.Op)
		}
	case OpVeto:
		if st.Reason == "" {
			return fmt.Errorf("steps[%d]: reason is required for veto", index)
		}
	}
	return nil
}

// validateAssertion checks the fields each assertion type needs.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertSize:
		if a.Value < 1 {
			return fmt.Errorf("assertions[%d]: value must be positive for size", index)
		}
	case AssertItemCount:
		if a.Value < 0 {
			return fmt.Errorf("assertions[%d]: value must be non-negative for item_count", index)
		}
	case AssertSectionAt:
		if a.Name == "" && a.TimeSignature == "" {
			return fmt.Errorf("assertions[%d]: name or time_signature is required for section_at", index)
		}
	case AssertItemsAtBar:
	case AssertDump:
		if a.Dump == "" {
			return fmt.Errorf("assertions[%d]: dump is required for dump", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
