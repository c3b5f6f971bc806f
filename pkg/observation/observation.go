// Package observation defines the loosely typed record every source connector
// emits and the helpers transforms use to read and rewrite it.
//
// Observations keep the shape they have on the wire: maps are map[string]any,
// lists are []any and scalars are strings, numbers, booleans, time.Time or nil.
// Transforms never mutate the value they are given; they copy the maps they
// change (see With, Without and Clone) and share everything else.
package observation

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/custody/pkg/constants"
)

// Observation is one unit of collected evidence with provenance metadata.
type Observation map[string]any

// Entity is one member of an entity list: a download, a media reference,
// a location, a query or a relation.
type Entity map[string]any

// Batch is an ordered list of observations processed in one pipeline cycle.
type Batch []Observation

// SourceKind is the provenance type of an observation.
type SourceKind string

// Known source kinds.
const (
	SourceYoutubeChannel  SourceKind = "youtube_channel"
	SourceYoutubeVideo    SourceKind = "youtube_video"
	SourceTwitterFeed     SourceKind = "twitter_feed"
	SourceTwitterTweet    SourceKind = "twitter_tweet"
	SourceFacebookAPIFeed SourceKind = "facebook_api_feed"
	SourceFilesystem      SourceKind = "fs_unfold"
	SourceTelegramChannel SourceKind = "telegram_channel"
	SourceLiveuamapRegion SourceKind = "liveuamap_region"
)

// String returns the wire form of the source kind.
func (s SourceKind) String() string {
	return string(s)
}

// Source returns the provenance type of the observation.
func (o Observation) Source() SourceKind {
	return SourceKind(String(o[constants.FieldSource]))
}

// IDHash returns the identity hash of the observation, or "" when absent.
func (o Observation) IDHash() string {
	return String(o[constants.FieldIDHash])
}

// IDFields returns the field names used to derive the identity hash.
func (o Observation) IDFields() []string {
	return Strings(o[constants.FieldIDFields])
}

// ContentFields returns the field names used to derive the content hash.
func (o Observation) ContentFields() []string {
	return Strings(o[constants.FieldContentFields])
}

// CaseRecord returns the cid map and whether it is set.
func (o Observation) CaseRecord() (map[string]any, bool) {
	m, ok := AsMap(o[constants.FieldCaseRecord])
	return m, ok
}

// PubDates returns the publication dates map, or nil.
func (o Observation) PubDates() map[string]any {
	m, _ := AsMap(o[constants.FieldPubDates])
	return m
}

// Entities returns the entity list stored under key. Elements that are not
// maps are skipped; a missing or malformed list yields nil.
func (o Observation) Entities(key string) []Entity {
	return EntitiesOf(o[key])
}

// With returns a shallow copy of the observation with key set to value.
func (o Observation) With(key string, value any) Observation {
	out := make(Observation, len(o)+1)
	for k, v := range o {
		out[k] = v
	}
	out[key] = value
	return out
}

// Without returns a shallow copy of the observation without the given keys.
func (o Observation) Without(keys ...string) Observation {
	out := make(Observation, len(o))
	for k, v := range o {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// MapEntities returns obs with fn applied to every map member of the list
// stored under key. fn reports whether it rewrote the entity. Members that
// are not maps keep their position, and a missing or non-list field leaves
// obs as it is.
func (o Observation) MapEntities(key string, fn func(Entity) (Entity, bool)) Observation {
	items, ok := Members(o[key])
	if !ok {
		return o
	}
	var out []any
	for i, item := range items {
		m, ok := AsMap(item)
		if !ok {
			continue
		}
		e, changed := fn(Entity(m))
		if !changed {
			continue
		}
		if out == nil {
			out = make([]any, len(items))
			copy(out, items)
		}
		out[i] = map[string]any(e)
	}
	if out == nil {
		return o
	}
	return o.With(key, out)
}

// WithEntities returns a shallow copy with the entity list stored under key.
func (o Observation) WithEntities(key string, list []Entity) Observation {
	return o.With(key, EntitiesValue(list))
}

// Clone returns a deep copy of the observation in canonical shape.
func (o Observation) Clone() Observation {
	if o == nil {
		return nil
	}
	return Observation(CloneMap(o))
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	return Entity(CloneMap(e))
}

// Type returns the entity type tag.
func (e Entity) Type() string {
	return String(e[constants.EntityType])
}

// Term returns the entity reference term as a string.
func (e Entity) Term() string {
	return String(e[constants.EntityTerm])
}

// IDHash returns the entity identity hash, or "".
func (e Entity) IDHash() string {
	return String(e[constants.FieldIDHash])
}

// With returns a shallow copy of the entity with key set to value.
func (e Entity) With(key string, value any) Entity {
	out := make(Entity, len(e)+1)
	for k, v := range e {
		out[k] = v
	}
	out[key] = value
	return out
}

// Without returns a shallow copy of the entity without the given keys.
func (e Entity) Without(keys ...string) Entity {
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Clone returns a deep copy of every observation in the batch.
func (b Batch) Clone() Batch {
	if b == nil {
		return nil
	}
	out := make(Batch, len(b))
	for i, o := range b {
		out[i] = o.Clone()
	}
	return out
}

// EntitiesOf converts a list value into entities.
func EntitiesOf(v any) []Entity {
	switch list := v.(type) {
	case []Entity:
		return list
	case []map[string]any:
		out := make([]Entity, 0, len(list))
		for _, m := range list {
			out = append(out, Entity(m))
		}
		return out
	case []any:
		out := make([]Entity, 0, len(list))
		for _, item := range list {
			if m, ok := AsMap(item); ok {
				out = append(out, Entity(m))
			}
		}
		return out
	}
	return nil
}

// Members returns the elements of a list value as []any. It reports false
// when v is not a list. An []any input is returned as-is.
func Members(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []Entity:
		return EntitiesValue(list), true
	case []map[string]any:
		out := make([]any, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out, true
	case []string:
		return StringsValue(list), true
	}
	return nil, false
}

// EntitiesValue converts entities into their canonical stored form.
func EntitiesValue(list []Entity) []any {
	out := make([]any, len(list))
	for i, e := range list {
		out[i] = map[string]any(e)
	}
	return out
}

// AsMap returns v as a map when it is any of the map shapes observations use.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case Observation:
		return map[string]any(m), m != nil
	case Entity:
		return map[string]any(m), m != nil
	}
	return nil, false
}

// CopyMap returns a shallow copy of m.
func CopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CloneMap deep copies m.
func CloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep copies maps and slices and normalizes them to
// map[string]any and []any. Scalars are returned as-is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneMap(val)
	case Observation:
		return CloneMap(val)
	case Entity:
		return CloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case []Entity:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneMap(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneMap(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	case []float64:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	}
	return v
}

// Lookup resolves a dot path ("snippet.title") through nested maps.
func Lookup(m map[string]any, path string) (any, bool) {
	var current any = m
	for _, part := range strings.Split(path, ".") {
		node, ok := AsMap(current)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Get resolves a dot path and returns nil when any step is missing.
func Get(m map[string]any, path string) any {
	v, _ := Lookup(m, path)
	return v
}

// IsNull reports whether v is nil.
func IsNull(v any) bool {
	return v == nil
}

// String renders a scalar as a string; nil renders as "".
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}

// Strings converts a list value into its string members, skipping nils.
// The result never shares memory with v.
func Strings(v any) []string {
	switch list := v.(type) {
	case []string:
		return slices.Clone(list)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item == nil {
				continue
			}
			out = append(out, String(item))
		}
		return out
	}
	return nil
}

// StringsValue converts a string list into its canonical stored form.
func StringsValue(list []string) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}

// NullIfEmpty returns nil for a missing or empty string value, v otherwise.
func NullIfEmpty(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}
