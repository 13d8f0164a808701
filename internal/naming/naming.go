// Package naming derives canonical plugin identifiers from repository paths.
//
// A plugin is declared by a repository identifier such as "owner/telescope.nvim".
// The short name ("telescope") is what the module resolver activates; the
// directory name ("telescope.nvim") is what exists on disk. Both derivations
// are pure and total.
package naming

import "strings"

// Name returns the short module name for a repository identifier.
// It takes the segment after the last '/' and strips a trailing
// extension-like suffix: everything from the last '.' onward, when a '.'
// appears after the last '/'.
//
//	Name("owner/foo.nvim") == "foo"
//	Name("owner/bar")      == "bar"
//	Name("baz")            == "baz"
func Name(repo string) string {
	base := repo
	if i := strings.LastIndexByte(repo, '/'); i >= 0 {
		base = repo[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// Dir returns the on-disk directory name for a repository identifier: the
// segment after the last '/', suffix intact. A repo with no '/' is not a
// repo-style path and has no directory; Dir returns "" for it.
//
//	Dir("owner/foo.nvim") == "foo.nvim"
//	Dir("owner/bar")      == "bar"
//	Dir("baz")            == ""
func Dir(repo string) string {
	i := strings.LastIndexByte(repo, '/')
	if i < 0 {
		return ""
	}
	return repo[i+1:]
}
