// Package config reads the declarative plugin configuration: two lists,
// eager and deferred, of plugin declarations mirroring the registry's
// spec fields. It also watches the file for changes so a running host can
// re-run setup against an edited configuration.
package config
