// Package config loads, normalizes, and validates plantcam configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional dotenv file, and honours
// environment fallbacks for SMTP credentials so secrets can stay out of the
// config file. The Config type centralizes every knob the agent and CLI need:
// the daily schedule, the camera command, the mail transport, and the
// directories used for captures, logs, and state.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
