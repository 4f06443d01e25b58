package leadsheet

import "fmt"

// Operation identifies the store call that produced an event.
// All events of one call share the same Operation.
type Operation struct {
	Name string
	Seq  int64
}

// Event describes one committed change. It is a sealed interface over the
// types below; each carries enough old/new data to be inverted.
type Event interface {
	Operation() Operation
	event()
}

// ItemAdded reports an inserted item (ordinary item or Section).
type ItemAdded struct {
	Op   Operation
	Item Item
}

// ItemRemoved reports a removed item.
type ItemRemoved struct {
	Op   Operation
	Item Item
}

// ItemChanged reports an in-place replacement keeping identity and position:
// a new payload, or a Section's new name or time signature.
type ItemChanged struct {
	Op  Operation
	Old Item
	New Item
}

// ItemMoved reports an ordinary item relocated (explicit move or
// renormalization).
type ItemMoved struct {
	Op  Operation
	Old OrdinaryItem
	New OrdinaryItem
}

// SectionMoved reports a Section relocated to another bar.
type SectionMoved struct {
	Op  Operation
	Old Section
	New Section
}

// ItemBarShifted reports items shifted by Delta bars. Items holds the
// snapshots before the shift.
type ItemBarShifted struct {
	Op    Operation
	Items []Item
	Delta int
}

// SizeChanged reports a new leadsheet size in bars.
type SizeChanged struct {
	Op  Operation
	Old int
	New int
}

func (e ItemAdded) Operation() Operation      { return e.Op }
func (e ItemRemoved) Operation() Operation    { return e.Op }
func (e ItemChanged) Operation() Operation    { return e.Op }
func (e ItemMoved) Operation() Operation      { return e.Op }
func (e SectionMoved) Operation() Operation   { return e.Op }
func (e ItemBarShifted) Operation() Operation { return e.Op }
func (e SizeChanged) Operation() Operation    { return e.Op }

func (ItemAdded) event()      {}
func (ItemRemoved) event()    {}
func (ItemChanged) event()    {}
func (ItemMoved) event()      {}
func (SectionMoved) event()   {}
func (ItemBarShifted) event() {}
func (SizeChanged) event()    {}

// Inverse returns the event undoing ev. The Operation is cleared.
func Inverse(ev Event) Event {
	switch e := ev.(type) {
	case ItemAdded:
		return ItemRemoved{Item: e.Item}
	case ItemRemoved:
		return ItemAdded{Item: e.Item}
	case ItemChanged:
		return ItemChanged{Old: e.New, New: e.Old}
	case ItemMoved:
		return ItemMoved{Old: e.New, New: e.Old}
	case SectionMoved:
		return SectionMoved{Old: e.New, New: e.Old}
	case ItemBarShifted:
		shifted := make([]Item, len(e.Items))
		for i, it := range e.Items {
			shifted[i] = withBar(it, it.Pos().Bar+e.Delta)
		}
		return ItemBarShifted{Items: shifted, Delta: -e.Delta}
	case SizeChanged:
		return SizeChanged{Old: e.New, New: e.Old}
	}
	panic(fmt.Sprintf("leadsheet: unknown event type %T", ev))
}

// InverseAll returns the inverse of a batch: each event inverted, in reverse order.
func InverseAll(events []Event) []Event {
	inv := make([]Event, len(events))
	for i, ev := range events {
		inv[len(events)-1-i] = Inverse(ev)
	}
	return inv
}

// stamp returns ev carrying op.
func stamp(ev Event, op Operation) Event {
	switch e := ev.(type) {
	case ItemAdded:
		e.Op = op
		return e
	case ItemRemoved:
		e.Op = op
		return e
	case ItemChanged:
		e.Op = op
		return e
	case ItemMoved:
		e.Op = op
		return e
	case SectionMoved:
		e.Op = op
		return e
	case ItemBarShifted:
		e.Op = op
		return e
	case SizeChanged:
		e.Op = op
		return e
	}
	panic(fmt.Sprintf("leadsheet: unknown event type %T", ev))
}

// Describe returns a one-line human readable form of ev.
func Describe(ev Event) string {
	switch e := ev.(type) {
	case ItemAdded:
		return fmt.Sprintf("added %s", e.Item)
	case ItemRemoved:
		return fmt.Sprintf("removed %s", e.Item)
	case ItemChanged:
		return fmt.Sprintf("changed %s -> %s", e.Old, e.New)
	case ItemMoved:
		return fmt.Sprintf("moved %s -> %s", e.Old, e.New.Position)
	case SectionMoved:
		return fmt.Sprintf("moved %s -> bar %d", e.Old, e.New.Bar)
	case ItemBarShifted:
		return fmt.Sprintf("shifted %d item(s) by %d bar(s)", len(e.Items), e.Delta)
	case SizeChanged:
		return fmt.Sprintf("size %d -> %d", e.Old, e.New)
	}
	return fmt.Sprintf("%T", ev)
}
