/*
Package config provides type-safe configuration extraction from map[string]any
and the Settings that drive a propagation run.

# Basic Usage

	cfg, err := config.FromFile("dropgraph.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	cfg = config.FromEnv(cfg, os.Environ())

	settings, err := config.SettingsFrom(cfg)
	if err != nil {
	    log.Fatal(err)
	}

	logger := settings.Logger(os.Stderr)
	bus := settings.Broadcaster(logger)
	store, err := settings.OpenStore()

# Keys

	delivery       sequential | concurrent (default sequential)
	log_level      debug | info | warn | error (default info)
	metrics        enable otel metrics (default false)
	tracing        enable otel tracing (default false)
	status_store   memory | sqlite (default memory)
	status_path    database file, required for sqlite
	auto_complete  complete drops as soon as they are ready (default false)
	await_timeout  duration, or seconds as a number (default 30s)

Environment variables named DROPGRAPH_<KEY> override file values.

# Type Coercion

Accessors return the default when the key is missing or holds a value of
another type. Duration accepts strings such as "1m30s", numbers of seconds
and time.Duration values. Bool accepts the strings "true" and "false".

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation; With returns a new Config.
*/
package config
