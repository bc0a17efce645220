// Package query evaluates expr-lang expressions against decoded API
// payloads, e.g. to project the interesting part of a large response:
//
//	c := query.NewCompiler(query.WithCache(64))
//	names, err := c.Run(`map(data.realms, .name)`, payload)
//	slug, err := c.Run(`path(data, "realms.0.slug")`, payload)
package query
