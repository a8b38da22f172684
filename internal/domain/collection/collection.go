// Package collection names the keyspace of one search collection:
// document keys "<prefix><name>:<id>" and the index "<prefix><name>:idx".
package collection

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nameRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	prefixRegex = regexp.MustCompile(`^[a-zA-Z0-9_:-]*$`)
)

// Collection is an immutable keyspace descriptor.
type Collection struct {
	prefix string
	name   string
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// New validates and creates a collection descriptor.
func New(prefix, name string) (Collection, error) {
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if !prefixRegex.MatchString(prefix) {
		return Collection{}, fmt.Errorf("key prefix %q contains invalid characters", prefix)
	}
	return Collection{prefix: prefix, name: name}, nil
}

// MustNew is New that panics on error, for constants and tests.
func MustNew(prefix, name string) Collection {
	c, err := New(prefix, name)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// KeyPrefix returns the prefix shared by all document keys.
func (c Collection) KeyPrefix() string { return c.prefix + c.name + ":" }

// Key returns the storage key of a document.
func (c Collection) Key(id string) string { return c.KeyPrefix() + id }

// IndexName returns the FT index name.
func (c Collection) IndexName() string { return c.prefix + c.name + ":idx" }

// IDFromKey strips the key prefix; ok is false for keys outside the collection.
func (c Collection) IDFromKey(key string) (string, bool) {
	id, ok := strings.CutPrefix(key, c.KeyPrefix())
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
