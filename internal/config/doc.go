// Package config loads, validates, and normalizes dubmux configuration.
//
// Configuration lives in a TOML file (default ~/.config/dubmux/config.toml,
// with a project-local dubmux.toml fallback). Load applies defaults for
// absent values, expands ~ in path fields, and rejects unusable values
// before any subsystem starts.
package config
