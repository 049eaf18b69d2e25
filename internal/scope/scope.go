// Package scope holds the recognized permission vocabulary and scope-set parsing.
package scope

import (
	"fmt"
	"slices"
	"strings"
)

// Known is the fixed vocabulary of recognized scopes.
var Known = []string{
	"user",
	"user.email",
	"channels",
	"messages",
	"files",
	"bugreports",
}

// Default is used when a request carries no scope parameter.
var Default = []string{"user"}

// IsKnown reports whether s belongs to the vocabulary.
func IsKnown(s string) bool { return slices.Contains(Known, s) }

// Parse splits a space-separated scope string, rejecting unknown entries and
// collapsing duplicates while keeping first-occurrence order.
// An empty string yields Default.
func Parse(raw string) ([]string, error) {
	if raw == "" {
		return slices.Clone(Default), nil
	}
	var out []string
	for _, s := range strings.Split(raw, " ") {
		if !IsKnown(s) {
			return nil, fmt.Errorf("unknown scope %q", s)
		}
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Join renders a scope set the way it travels on the wire.
func Join(scopes []string) string { return strings.Join(scopes, " ") }
