package build

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/toyshare/toyshare/internal/manifest"
	"github.com/toyshare/toyshare/internal/paths"
	"github.com/toyshare/toyshare/internal/runtimectx"
)

const (
	// bootstrapBase is the bootstrap file name without extension.
	bootstrapBase = "index"

	// ServerBundle is the server bundler's output file, relative to dist.
	ServerBundle = "server.js"
)

// BootstrapPath returns dist/index.js for ESM projects and
// dist/index.cjs for CommonJS projects.
func BootstrapPath(b paths.Bundle, kind manifest.ModuleKind) string {
	return filepath.Join(b.Dist, bootstrapBase+kind.BootstrapExt())
}

// bootstrapVar is one directory variable set by the bootstrap, relative
// to the project root so the dist directory can be moved with it.
type bootstrapVar struct {
	Name string
	Rel  string
}

type bootstrapData struct {
	Server string
	Vars   []bootstrapVar
}

var funcs = template.FuncMap{"quote": strconv.Quote}

var esmTemplate = template.Must(template.New("esm").Funcs(funcs).Parse(`// Generated by toyshare build. Do not edit.
import { createRequire } from "node:module";
import path from "node:path";
import { fileURLToPath } from "node:url";

const __filename = fileURLToPath(import.meta.url);
const __dirname = path.dirname(__filename);

globalThis.__filename = __filename;
globalThis.__dirname = __dirname;
globalThis.require = createRequire(import.meta.url);

const root = path.resolve(__dirname, "..");
{{- range .Vars}}
process.env.{{.Name}} ??= path.join(root, {{quote .Rel}});
{{- end}}

await import({{quote .Server}});
`))

var cjsTemplate = template.Must(template.New("cjs").Funcs(funcs).Parse(`// Generated by toyshare build. Do not edit.
"use strict";

const path = require("node:path");

globalThis.__filename = __filename;
globalThis.__dirname = __dirname;
globalThis.require = require;

const root = path.resolve(__dirname, "..");
{{- range .Vars}}
process.env.{{.Name}} ??= path.join(root, {{quote .Rel}});
{{- end}}

require({{quote .Server}});
`))

// RenderBootstrap renders the bootstrap for the given module kind. The
// output depends only on kind and the bundle's layout relative to its
// root, so two builds of the same project render identical files.
func RenderBootstrap(kind manifest.ModuleKind, b paths.Bundle) ([]byte, error) {
	vars := make([]bootstrapVar, 0, 5)
	for _, v := range []struct {
		name string
		dir  string
	}{
		{runtimectx.EnvRoot, b.Root},
		{runtimectx.EnvClient, b.Client},
		{runtimectx.EnvClientSrc, b.ClientSrc},
		{runtimectx.EnvShared, b.Shared},
		{runtimectx.EnvAssets, b.Assets},
	} {
		rel, err := filepath.Rel(b.Root, v.dir)
		if err != nil {
			return nil, fmt.Errorf("failed to relativize %s: %w", v.dir, err)
		}
		vars = append(vars, bootstrapVar{Name: v.name, Rel: filepath.ToSlash(rel)})
	}

	tmpl := cjsTemplate
	if kind == manifest.ModuleESM {
		tmpl = esmTemplate
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, bootstrapData{Server: "./" + ServerBundle, Vars: vars}); err != nil {
		return nil, fmt.Errorf("failed to render bootstrap: %w", err)
	}
	return buf.Bytes(), nil
}
