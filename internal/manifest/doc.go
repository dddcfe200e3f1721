// Package manifest reads the Node project's package.json.
//
// package.json is parsed leniently: comments and trailing commas are
// stripped with github.com/tidwall/jsonc before decoding, so hand-edited
// manifests do not break the tooling. The module kind ("type" field)
// decides whether the production bootstrap is emitted as an ES module or
// as CommonJS.
package manifest
