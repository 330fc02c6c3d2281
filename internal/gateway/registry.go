package gateway

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Domain is a resolver answering a fixed set of Query fields.
type Domain interface {
	Domain() string
	QueryFields() []string
}

// CollisionError reports a Query field claimed by two domains.
type CollisionError struct {
	Field  string
	First  string
	Second string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("query field %q is defined by both %q and %q", e.Field, e.First, e.Second)
}

// Registry records which domain answers each Query field.
type Registry struct {
	owners map[string]string
}

// Merge registers the fields of every domain in order. Registering a field
// twice is an error; nothing is silently overridden.
func Merge(domains ...Domain) (*Registry, error) {
	r := &Registry{owners: make(map[string]string)}
	for _, d := range domains {
		for _, f := range d.QueryFields() {
			if prev, ok := r.owners[f]; ok {
				return nil, &CollisionError{Field: f, First: prev, Second: d.Domain()}
			}
			r.owners[f] = d.Domain()
		}
	}
	return r, nil
}

// Owner returns the domain answering field.
func (r *Registry) Owner(field string) (string, bool) {
	d, ok := r.owners[field]
	return d, ok
}

// Fields returns the registered fields, sorted.
func (r *Registry) Fields() []string {
	out := make([]string, 0, len(r.owners))
	for f := range r.owners {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Check verifies that the schema's Query fields and the registered fields
// are the same set.
func (r *Registry) Check(schemaFields []string) error {
	declared := make(map[string]bool, len(schemaFields))
	var unowned []string
	for _, f := range schemaFields {
		declared[f] = true
		if _, ok := r.owners[f]; !ok {
			unowned = append(unowned, f)
		}
	}
	var unknown []string
	for _, f := range r.Fields() {
		if !declared[f] {
			unknown = append(unknown, fmt.Sprintf("%s (%s)", f, r.owners[f]))
		}
	}

	switch {
	case len(unowned) > 0:
		sort.Strings(unowned)
		return errors.Errorf("query fields without a resolver: %s", strings.Join(unowned, ", "))
	case len(unknown) > 0:
		return errors.Errorf("resolvers registered for fields missing from the schema: %s", strings.Join(unknown, ", "))
	}
	return nil
}
