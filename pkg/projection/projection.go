// Package projection prunes observations at the system boundary.
//
// Omit strips raw API noise while keeping the fields the annotation overlay
// reads; Pick emits only an allow-list for search index consumers. Paths are
// dot separated and step into every element when they cross a list. Neither
// filter mutates its input.
package projection

import (
	"strings"

	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/observation"
)

// DefaultOmit lists the raw API fields dropped on export.
var DefaultOmit = []string{
	"etag",
	"kind",
	"pageInfo",
	"nextPageToken",
	"prevPageToken",
	"snippet.thumbnails",
	"snippet.localized",
	"snippet.categoryId",
	"status",
	"user.entities",
	"privacy",
	"paging",
}

// Protected lists the fields Omit never removes.
var Protected = []string{
	"snippet.title",
	"snippet.description",
	"snippet.channelId",
	"snippet.channelTitle",
	"statistics.viewCount",
	"contentDetails.duration",
}

// DefaultPick is the allow-list handed to the search index.
var DefaultPick = []string{
	constants.FieldIDHash,
	constants.FieldContentHash,
	constants.FieldSource,
	constants.FieldPubDates,
	constants.FieldMedia + ".type",
	constants.FieldMedia + ".term",
	constants.FieldDownloads + ".type",
	constants.FieldDownloads + ".term",
	constants.FieldDownloads + ".sha256",
	constants.FieldLocations,
	constants.FieldCaseRecord,
}

// NoteFields are free-text fields dropped from every exported sub-entity.
var NoteFields = []string{"notes", "comment", "comments"}

// pathTree indexes dot paths by segment. A leaf selects the whole value.
type pathTree struct {
	leaf     bool
	children map[string]*pathTree
}

func newPathTree(paths []string) *pathTree {
	root := &pathTree{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		node := root
		for _, part := range strings.Split(p, ".") {
			if node.leaf {
				break
			}
			if node.children == nil {
				node.children = make(map[string]*pathTree)
			}
			child, ok := node.children[part]
			if !ok {
				child = &pathTree{}
				node.children[part] = child
			}
			node = child
		}
		node.leaf = true
		node.children = nil
	}
	return root
}

func (t *pathTree) child(key string) *pathTree {
	if t == nil {
		return nil
	}
	return t.children[key]
}

// elements returns v as a list of values when it is any list shape.
func elements(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []observation.Entity, []map[string]any:
		return observation.EntitiesValue(observation.EntitiesOf(list)), true
	}
	return nil, false
}

// pick keeps only the paths of tree. ok is false when v has nothing to offer.
func pick(v any, tree *pathTree) (any, bool) {
	if tree.leaf {
		return observation.CloneValue(v), true
	}
	if list, ok := elements(v); ok {
		out := make([]any, 0, len(list))
		for _, item := range list {
			if picked, ok := pick(item, tree); ok {
				out = append(out, picked)
			}
		}
		return out, true
	}
	m, ok := observation.AsMap(v)
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(tree.children))
	for key, sub := range tree.children {
		value, present := m[key]
		if !present {
			continue
		}
		if picked, ok := pick(value, sub); ok {
			out[key] = picked
		}
	}
	return out, true
}

// omit removes the paths of tree unless protected covers them. An omitted
// value with protected descendants is reduced to those descendants.
func omit(v any, tree, protected *pathTree) any {
	if list, ok := elements(v); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = omit(item, tree, protected)
		}
		return out
	}
	m, ok := observation.AsMap(v)
	if !ok {
		return v
	}

	var out map[string]any
	for key, sub := range tree.children {
		value, present := m[key]
		if !present {
			continue
		}
		if out == nil {
			out = observation.CopyMap(m)
		}

		guard := protected.child(key)
		switch {
		case !sub.leaf:
			out[key] = omit(value, sub, guard)
		case guard == nil:
			delete(out, key)
		case guard.leaf:
			// protected as a whole
		default:
			if reduced, ok := pick(value, guard); ok {
				out[key] = reduced
			} else {
				delete(out, key)
			}
		}
	}
	if out == nil {
		return m
	}
	return out
}

// dropNotes removes NoteFields from the entities of every entity list.
func dropNotes(obs observation.Observation) observation.Observation {
	for _, key := range constants.EntityLists {
		obs = obs.MapEntities(key, func(e observation.Entity) (observation.Entity, bool) {
			for _, f := range NoteFields {
				if _, ok := e[f]; ok {
					return e.Without(NoteFields...), true
				}
			}
			return e, false
		})
	}
	return obs
}

// Omit returns obs without the given paths. Paths in Protected, and the
// protected descendants of an omitted path, are kept.
func Omit(obs observation.Observation, paths []string) observation.Observation {
	out := omit(map[string]any(obs), newPathTree(paths), newPathTree(Protected))
	m, _ := observation.AsMap(out)
	return observation.Observation(m)
}

// Pick returns only the allow-listed paths of obs with notes stripped from
// its sub-entities.
func Pick(obs observation.Observation, paths []string) observation.Observation {
	out, _ := pick(map[string]any(obs), newPathTree(paths))
	m, _ := observation.AsMap(out)
	return dropNotes(observation.Observation(m))
}
