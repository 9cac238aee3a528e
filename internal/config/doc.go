// Package config defines the packaging settings and provides helpers to
// load, validate and save them in YAML format.
//
// Every field has a default, so the settings file is optional: the zero
// Config validated with Validate packages the OTA_Template library from ./src.
package config
