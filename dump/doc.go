// Package dump parses wiki XML dump exports into articles.
//
// The parser is a push-style state machine over the decoder's token stream:
// it holds at most one in-flight document's text in memory, so dumps of any
// size can be parsed without full materialization. Completed articles are
// handed to a caller-supplied handler one at a time.
package dump
