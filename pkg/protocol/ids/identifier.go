package ids

import "strings"

// Identifier is a namespaced resource name ("minecraft:the_end"). The
// wire form is a single string.
type Identifier struct {
	Namespace string
	Path      string
}

// DefaultNamespace is assumed when an identifier string has no namespace.
const DefaultNamespace = "minecraft"

// NewIdentifier builds an identifier in the default namespace.
func NewIdentifier(path string) Identifier {
	return Identifier{Namespace: DefaultNamespace, Path: path}
}

// ParseIdentifier splits "namespace:path", defaulting the namespace.
func ParseIdentifier(s string) Identifier {
	if ns, path, ok := strings.Cut(s, ":"); ok {
		return Identifier{Namespace: ns, Path: path}
	}
	return Identifier{Namespace: DefaultNamespace, Path: s}
}

// String returns the wire form.
func (i Identifier) String() string {
	return i.Namespace + ":" + i.Path
}
