// Package ai defines the text embedding boundary and its configuration.
// Embedding failures propagate unchanged to the caller.
package ai
