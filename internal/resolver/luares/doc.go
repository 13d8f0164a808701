// Package luares implements the module resolver over an embedded Lua
// interpreter.
//
// A plugin module is a Lua file located under the resolver's search roots:
// <root>/<name>.lua, <root>/<name>/init.lua, or the same shapes under a
// lua/ subdirectory. Activation runs the file once in a sandboxed state;
// the chunk's returned table becomes the module's exposed interface, and a
// table carrying a setup function is reported to the loader as
// configurable.
//
// The sandbox opens only the base, table, string, and math libraries.
// Plugin setup code gets no filesystem, process, or module-loading access
// from inside Lua.
package luares
