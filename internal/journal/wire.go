package journal

import (
	"encoding/json"
	"fmt"

	"github.com/jjazzboss/JJazzLab-sub029/internal/leadsheet"
	"github.com/jjazzboss/JJazzLab-sub029/internal/music"
)

// Event type tags stored in the events table.
const (
	typeItemAdded    = "item_added"
	typeItemRemoved  = "item_removed"
	typeItemChanged  = "item_changed"
	typeItemMoved    = "item_moved"
	typeSectionMoved = "section_moved"
	typeItemsShifted = "items_shifted"
	typeSizeChanged  = "size_changed"
)

// PayloadDecoder rebuilds a payload from its kind and text.
type PayloadDecoder func(kind leadsheet.Kind, text string) (leadsheet.Payload, error)

func itemValue(it leadsheet.Item) map[string]any {
	switch v := it.(type) {
	case leadsheet.Section:
		return map[string]any{
			"id":   uint64(v.ID()),
			"kind": string(leadsheet.KindSection),
			"bar":  v.Bar,
			"name": v.Name,
			"ts":   v.TimeSignature.String(),
		}
	case leadsheet.OrdinaryItem:
		return map[string]any{
			"id":   uint64(v.ID()),
			"kind": string(v.Kind()),
			"bar":  v.Position.Bar,
			"beat": v.Position.Beat.String(),
			"text": v.Payload.String(),
		}
	}
	panic(fmt.Sprintf("journal: unknown item type %T", it))
}

func itemList(items []leadsheet.Item) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = itemValue(it)
	}
	return out
}

// encodeEvent returns the type tag and canonical JSON body of ev.
func encodeEvent(ev leadsheet.Event) (string, []byte, error) {
	var typ string
	var body map[string]any
	switch e := ev.(type) {
	case leadsheet.ItemAdded:
		typ, body = typeItemAdded, map[string]any{"item": itemValue(e.Item)}
	case leadsheet.ItemRemoved:
		typ, body = typeItemRemoved, map[string]any{"item": itemValue(e.Item)}
	case leadsheet.ItemChanged:
		typ, body = typeItemChanged, map[string]any{"old": itemValue(e.Old), "new": itemValue(e.New)}
	case leadsheet.ItemMoved:
		typ, body = typeItemMoved, map[string]any{"old": itemValue(e.Old), "new": itemValue(e.New)}
	case leadsheet.SectionMoved:
		typ, body = typeSectionMoved, map[string]any{"old": itemValue(e.Old), "new": itemValue(e.New)}
	case leadsheet.ItemBarShifted:
		typ, body = typeItemsShifted, map[string]any{"items": itemList(e.Items), "delta": e.Delta}
	case leadsheet.SizeChanged:
		typ, body = typeSizeChanged, map[string]any{"old": e.Old, "new": e.New}
	default:
		return "", nil, fmt.Errorf("unsupported event type %T", ev)
	}
	data, err := marshalCanonical(body)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", typ, err)
	}
	return typ, data, nil
}

type wireItem struct {
	ID   uint64 `json:"id"`
	Kind string `json:"kind"`
	Bar  int    `json:"bar"`
	Name string `json:"name,omitempty"`
	TS   string `json:"ts,omitempty"`
	Beat string `json:"beat,omitempty"`
	Text string `json:"text,omitempty"`
}

type wireEvent struct {
	Item  *wireItem       `json:"item,omitempty"`
	Items []wireItem      `json:"items,omitempty"`
	Old   json.RawMessage `json:"old,omitempty"`
	New   json.RawMessage `json:"new,omitempty"`
	Delta int             `json:"delta,omitempty"`
}

func (w wireItem) decode(payloads PayloadDecoder) (leadsheet.Item, error) {
	if leadsheet.Kind(w.Kind) == leadsheet.KindSection {
		ts, err := music.ParseTimeSignature(w.TS)
		if err != nil {
			return nil, err
		}
		return leadsheet.NewSection(w.Name, ts, w.Bar).WithID(leadsheet.ItemID(w.ID)), nil
	}
	beat, err := music.ParseBeat(w.Beat)
	if err != nil {
		return nil, err
	}
	p, err := payloads(leadsheet.Kind(w.Kind), w.Text)
	if err != nil {
		return nil, err
	}
	return leadsheet.NewItem(music.At(w.Bar, beat), p).WithID(leadsheet.ItemID(w.ID)), nil
}

func decodeItems(items []wireItem, payloads PayloadDecoder) ([]leadsheet.Item, error) {
	out := make([]leadsheet.Item, len(items))
	for i, w := range items {
		it, err := w.decode(payloads)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = it
	}
	return out, nil
}

func decodeRawItem(raw json.RawMessage, payloads PayloadDecoder) (leadsheet.Item, error) {
	var w wireItem
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return w.decode(payloads)
}

// decodeEvent rebuilds an event from its stored form. The Operation is left
// empty; ApplyEvents stamps a new one.
func decodeEvent(typ string, body []byte, payloads PayloadDecoder) (leadsheet.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("decode %s: %w", typ, err)
	}

	switch typ {
	case typeItemAdded, typeItemRemoved:
		if w.Item == nil {
			return nil, fmt.Errorf("decode %s: missing item", typ)
		}
		it, err := w.Item.decode(payloads)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", typ, err)
		}
		if typ == typeItemAdded {
			return leadsheet.ItemAdded{Item: it}, nil
		}
		return leadsheet.ItemRemoved{Item: it}, nil

	case typeItemChanged, typeItemMoved, typeSectionMoved:
		oldItem, err := decodeRawItem(w.Old, payloads)
		if err != nil {
			return nil, fmt.Errorf("decode %s old: %w", typ, err)
		}
		newItem, err := decodeRawItem(w.New, payloads)
		if err != nil {
			return nil, fmt.Errorf("decode %s new: %w", typ, err)
		}
		switch typ {
		case typeItemChanged:
			return leadsheet.ItemChanged{Old: oldItem, New: newItem}, nil
		case typeItemMoved:
			o, ok1 := oldItem.(leadsheet.OrdinaryItem)
			n, ok2 := newItem.(leadsheet.OrdinaryItem)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("decode %s: not an ordinary item", typ)
			}
			return leadsheet.ItemMoved{Old: o, New: n}, nil
		default:
			o, ok1 := oldItem.(leadsheet.Section)
			n, ok2 := newItem.(leadsheet.Section)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("decode %s: not a section", typ)
			}
			return leadsheet.SectionMoved{Old: o, New: n}, nil
		}

	case typeItemsShifted:
		items, err := decodeItems(w.Items, payloads)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", typ, err)
		}
		return leadsheet.ItemBarShifted{Items: items, Delta: w.Delta}, nil

	case typeSizeChanged:
		var sz struct {
			Old int `json:"old"`
			New int `json:"new"`
		}
		if err := json.Unmarshal(body, &sz); err != nil {
			return nil, fmt.Errorf("decode %s: %w", typ, err)
		}
		return leadsheet.SizeChanged{Old: sz.Old, New: sz.New}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", typ)
}

// snapshot is the stored form of a whole leadsheet.
func encodeSnapshot(s *leadsheet.Store) ([]byte, error) {
	return marshalCanonical(map[string]any{
		"size":  s.Size(),
		"items": itemList(s.Items(leadsheet.AllItems)),
	})
}

func decodeSnapshot(data []byte, payloads PayloadDecoder) (int, []leadsheet.Item, error) {
	var w struct {
		Size  int        `json:"size"`
		Items []wireItem `json:"items"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return 0, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	items, err := decodeItems(w.Items, payloads)
	if err != nil {
		return 0, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return w.Size, items, nil
}
