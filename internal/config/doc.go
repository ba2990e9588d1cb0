// Package config provides configuration management for bookdl.
//
// This package handles:
//   - Loading settings from the environment, a .env file and an optional
//     YAML/JSON/TOML file
//   - Default configuration values
//   - Validation of concurrency, retry and policy options
//   - Conversion to http.Options and catalog.Config for other packages
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Crawls http://books.goalkicker.com/ into the working directory
//	// 3 attempts per request, 2s between attempts, 10s timeout
//	// 8 book pages and 4 downloads in flight
//
// # Loading
//
//	settings, err := config.Load("bookdl.yml") // or "" for environment only
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := settings.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment Variables
//
// Every option has an environment variable, e.g. OUTPUT_DIR,
// FETCH_MAX_ATTEMPTS, DOWNLOAD_CONCURRENCY, MATCH_MODE, ON_COLLISION.
// Environment variables override values from the file.
package config
