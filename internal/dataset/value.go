package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Entry is one bilingual dictionary entry.
type Entry struct {
	Traditional string   `json:"traditional" yaml:"traditional"`
	Simplified  string   `json:"simplified" yaml:"simplified"`
	Pinyin      string   `json:"pinyin" yaml:"pinyin"`
	Definitions []string `json:"definitions" yaml:"definitions"`
}

func (e Entry) Equal(o Entry) bool {
	return e.Traditional == o.Traditional &&
		e.Simplified == o.Simplified &&
		e.Pinyin == o.Pinyin &&
		slices.Equal(e.Definitions, o.Definitions)
}

// Item is a single attribute value: text, or a dictionary entry when Entry is set.
type Item struct {
	Text  string
	Entry *Entry
}

func TextItem(s string) Item {
	return Item{Text: s}
}

func EntryItem(e Entry) Item {
	return Item{Entry: &e}
}

func (i Item) IsEntry() bool {
	return i.Entry != nil
}

func (i Item) Equal(o Item) bool {
	if i.IsEntry() != o.IsEntry() {
		return false
	}
	if i.IsEntry() {
		return i.Entry.Equal(*o.Entry)
	}
	return i.Text == o.Text
}

func (i Item) String() string {
	if i.Entry == nil {
		return i.Text
	}
	return fmt.Sprintf("%s %s [%s] /%s/", i.Entry.Traditional, i.Entry.Simplified,
		i.Entry.Pinyin, strings.Join(i.Entry.Definitions, "/"))
}

func (i Item) MarshalJSON() ([]byte, error) {
	if i.Entry != nil {
		return json.Marshal(i.Entry)
	}
	return json.Marshal(i.Text)
}

func (i *Item) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		*i = Item{Entry: &e}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("item must be a string or an entry object: %w", err)
	}
	*i = Item{Text: s}
	return nil
}

func (i Item) MarshalYAML() (any, error) {
	if i.Entry != nil {
		return i.Entry, nil
	}
	return i.Text, nil
}

// Value is an attribute value. A scalar holds exactly one text item;
// a list holds any number of items in insertion order.
type Value struct {
	Items  []Item
	IsList bool
}

// Scalar returns a single-string value.
func Scalar(s string) Value {
	return Value{Items: []Item{TextItem(s)}}
}

// List returns a list value holding the given strings.
func List(ss ...string) Value {
	v := Value{Items: make([]Item, 0, len(ss)), IsList: true}
	for _, s := range ss {
		v.Items = append(v.Items, TextItem(s))
	}
	return v
}

// EntryList returns a list value holding the given entries.
func EntryList(entries ...Entry) Value {
	v := Value{Items: make([]Item, 0, len(entries)), IsList: true}
	for _, e := range entries {
		v.Items = append(v.Items, EntryItem(e))
	}
	return v
}

// String returns the scalar text, or the items joined by "; " for a list.
func (v Value) String() string {
	if !v.IsList && len(v.Items) == 1 {
		return v.Items[0].String()
	}
	parts := make([]string, len(v.Items))
	for i, item := range v.Items {
		parts[i] = item.String()
	}
	return strings.Join(parts, "; ")
}

// Contains reports whether an item equal to it is held by v.
func (v Value) Contains(it Item) bool {
	return slices.ContainsFunc(v.Items, it.Equal)
}

func (v Value) Equal(o Value) bool {
	return v.IsList == o.IsList && slices.EqualFunc(v.Items, o.Items, Item.Equal)
}

func (v Value) Clone() Value {
	out := Value{Items: make([]Item, len(v.Items)), IsList: v.IsList}
	for i, item := range v.Items {
		if item.Entry != nil {
			e := *item.Entry
			e.Definitions = slices.Clone(e.Definitions)
			item.Entry = &e
		}
		out.Items[i] = item
	}
	return out
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsList && len(v.Items) == 1 {
		return json.Marshal(v.Items[0])
	}
	items := v.Items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []Item
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = Value{Items: items, IsList: true}
		return nil
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*v = Value{Items: []Item{item}}
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	if !v.IsList && len(v.Items) == 1 {
		return v.Items[0].MarshalYAML()
	}
	out := make([]any, 0, len(v.Items))
	for _, item := range v.Items {
		m, _ := item.MarshalYAML()
		out = append(out, m)
	}
	return out, nil
}
