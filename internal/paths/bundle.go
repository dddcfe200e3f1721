package paths

import (
	"path/filepath"
)

// Directory names relative to the project root. These mirror the layout
// the Node application and its bundler configuration expect.
const (
	clientDir     = "client"
	clientSrcDir  = "src"
	sharedDir     = "shared"
	assetsDir     = "attached_assets"
	serverDir     = "server"
	migrationsDir = "migrations"
	distDir       = "dist"
	distPublicDir = "public"
)

// Bundle is the immutable mapping from symbolic names to absolute
// filesystem paths. It is computed once at process start and passed by
// value to every component that needs it.
type Bundle struct {
	Root       string `json:"root" yaml:"root"`
	Client     string `json:"client" yaml:"client"`
	ClientSrc  string `json:"clientSrc" yaml:"client-source"`
	Shared     string `json:"shared" yaml:"shared"`
	Assets     string `json:"assets" yaml:"assets"`
	Server     string `json:"server" yaml:"server"`
	Migrations string `json:"migrations" yaml:"migrations"`
	Dist       string `json:"dist" yaml:"dist"`
	DistPublic string `json:"distPublic" yaml:"dist-public"`
}

// Resolve computes the bundle from the program's own location. The root
// is the parent of the directory containing location. A relative
// location is made absolute against the working directory.
func Resolve(location string) Bundle {
	abs, err := filepath.Abs(location)
	if err != nil {
		abs = filepath.Clean(location)
	}
	return FromRoot(filepath.Dir(filepath.Dir(abs)))
}

// FromRoot derives every named directory from an already-known root.
func FromRoot(root string) Bundle {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	client := filepath.Join(root, clientDir)
	dist := filepath.Join(root, distDir)
	return Bundle{
		Root:       root,
		Client:     client,
		ClientSrc:  filepath.Join(client, clientSrcDir),
		Shared:     filepath.Join(root, sharedDir),
		Assets:     filepath.Join(root, assetsDir),
		Server:     filepath.Join(root, serverDir),
		Migrations: filepath.Join(root, migrationsDir),
		Dist:       dist,
		DistPublic: filepath.Join(dist, distPublicDir),
	}
}

// Map returns the bundle keyed by symbolic name.
func (b Bundle) Map() map[string]string {
	return map[string]string{
		"root":          b.Root,
		"client":        b.Client,
		"client-source": b.ClientSrc,
		"shared":        b.Shared,
		"assets":        b.Assets,
		"server":        b.Server,
		"migrations":    b.Migrations,
		"dist":          b.Dist,
		"dist-public":   b.DistPublic,
	}
}

// Names returns the symbolic names in display order.
func Names() []string {
	return []string{
		"root", "client", "client-source", "shared", "assets",
		"server", "migrations", "dist", "dist-public",
	}
}

// Join resolves a project-relative path against the root. Absolute
// paths are returned unchanged.
func (b Bundle) Join(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(b.Root, rel)
}
