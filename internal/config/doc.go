// Package config loads foilwatch's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/foilwatch/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// # Fields
//
//	api_base            server address, host:port or URL   (127.0.0.1:8081)
//	poll_interval_ms    wait between status polls          (3000)
//	request_timeout_ms  per-request HTTP timeout           (10000)
//	output_dir          where rotated airfoils are written (~/.local/share/foilwatch/outputs)
//	log_file            zerolog JSON log                   (~/.local/share/foilwatch/foilwatch.log)
//	log_level           debug, info, warn, error           (info)
//	out_of_order        skip or fail                       (skip)
//	backfill            deliver every unseen point         (false)
//
// Paths starting with ~ are expanded against the user's home directory.
// Invalid TOML, negative durations and unknown policies are errors; command
// line flags are applied by the caller after Load.
package config
