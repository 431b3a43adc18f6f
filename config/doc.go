// Package config loads the application core's TOML configuration.
//
// Load resolves the file (explicit path, or the standard location under
// the user's config directory), parses it, and validates the result. A
// missing file is not an error: the defaults from Default are used, so
// the application works out of the box with no configuration present.
//
// Example config.toml:
//
//	state_path = "~/.local/share/photogeoview/state.json"
//	auto_save_seconds = 30
//	cleanup_seconds = 600
//	themes = ["default", "dark", "light"]
//
//	[thumbnail_cache]
//	max_entries = 2000
//	max_memory_mb = 100.0
//
// Budgets left unset keep their built-in values. Tilde paths are
// expanded to the user's home directory.
package config
