// Package build produces the production artifact of a ToyShare project.
//
// A build runs two external bundlers in sequence, the frontend asset
// bundler and the server bundler, and then writes a small bootstrap file
// into the dist directory. The bootstrap is what `toyshare start` runs: it
// restores the CommonJS-style globals (__filename, __dirname, require)
// and the TOYSHARE_* directory variables before loading the bundled
// server. The bootstrap is only written after both bundlers succeed, so a
// dist directory without one is never a valid production build.
package build
