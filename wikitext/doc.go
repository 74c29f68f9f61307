// Package wikitext provides stateless text transforms over wiki markup.
//
// All functions are total: any input yields a result and none of them
// return errors. Extraction functions degrade to empty results when the
// markup they look for is absent.
package wikitext
