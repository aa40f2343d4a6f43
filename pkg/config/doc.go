// Package config loads datedreader settings from defaults, a YAML file, .env
// files, DATEDREADER_* environment variables and command line flags, in that
// order of increasing precedence.
//
// Example YAML configuration:
//
//	store:
//	  driver: sqlite
//	  path: /var/lib/datedreader/checkpoints.db
//	reader:
//	  date_format: "%Y-%m-%d"
//	  location: Europe/Berlin
//	logging:
//	  level: info
//
// Validate reports every problem found, joined with errors.Join.
package config
