package models

import (
	"fmt"
	"path"
	"strings"
)

// Identifier names a datapack element by namespace, registry and resource path
type Identifier struct {
	Namespace string `json:"namespace"`
	Registry  string `json:"registry"`
	Resource  string `json:"resource"`
}

// Key returns the unique element key
// Format: registry/namespace:resource
func (id Identifier) Key() string {
	return fmt.Sprintf("%s/%s:%s", id.Registry, id.Namespace, id.Resource)
}

// String returns the resource location (namespace:resource)
func (id Identifier) String() string {
	return id.Namespace + ":" + id.Resource
}

// FilePath returns the datapack path of the element's JSON file
// Format: data/namespace/registry/resource.json
func (id Identifier) FilePath() string {
	return fmt.Sprintf("data/%s/%s/%s.json", id.Namespace, id.Registry, id.Resource)
}

// IsZero reports whether the identifier is empty
func (id Identifier) IsZero() bool {
	return id == Identifier{}
}

// ParseKey reverses Key
func ParseKey(key string) (Identifier, error) {
	colon := strings.LastIndex(key, ":")
	if colon < 0 {
		return Identifier{}, fmt.Errorf("invalid element key %q: missing ':'", key)
	}
	head, resource := key[:colon], key[colon+1:]
	slash := strings.LastIndex(head, "/")
	if slash < 0 {
		return Identifier{}, fmt.Errorf("invalid element key %q: missing registry", key)
	}
	id := Identifier{
		Registry:  head[:slash],
		Namespace: head[slash+1:],
		Resource:  resource,
	}
	if id.Registry == "" || id.Namespace == "" || id.Resource == "" {
		return Identifier{}, fmt.Errorf("invalid element key %q: empty segment", key)
	}
	return id, nil
}

// FromPath derives an identifier from a datapack file path.
// Only JSON files under data/<namespace>/<registry>/ qualify. The registry is
// the first directory below the namespace, or the first two for tags and
// worldgen registries.
func FromPath(p string) (Identifier, bool) {
	p = NormalizePath(p)
	if path.Ext(p) != ".json" {
		return Identifier{}, false
	}
	parts := strings.Split(strings.TrimSuffix(p, ".json"), "/")
	if len(parts) < 4 || parts[0] != "data" {
		return Identifier{}, false
	}

	namespace := parts[1]
	rest := parts[2:]

	depth := 1
	if rest[0] == "tags" || rest[0] == "worldgen" {
		depth = 2
	}
	if len(rest) <= depth {
		return Identifier{}, false
	}

	return Identifier{
		Namespace: namespace,
		Registry:  strings.Join(rest[:depth], "/"),
		Resource:  strings.Join(rest[depth:], "/"),
	}, true
}
