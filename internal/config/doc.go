// Package config loads, normalizes, and validates fxpipe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the FXPIPE_ARTIFACT_DIR
// environment override. The Config type centralizes the artifact root, the
// currency source registry, executor concurrency, and logging so every
// command discovers them in one pass.
package config
