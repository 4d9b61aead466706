// Package config resolves harness settings from defaults, presets and files.
//
// Settings are layered: built-in defaults, then a named preset, then a YAML
// or JSON file, then command-line flags applied by the caller. Validate
// reports the first problem as an *Error naming the offending field.
//
// # File Format
//
//	preset: light
//	target:
//	  host: 127.0.0.1
//	  port: 12345
//	load:
//	  workers: 10
//	  iterations: 10000
//	  keys: [key1, key2, key3]
//	  log_dir: ./logs
//	  backoff: 1s
//	  rate: 0      # commands per second per worker, 0 = unlimited
//	  seed: 0      # 0 = time based
//	fragment:
//	  delay: 100ms
//	  probes:
//	    - ["get ", "key1\n"]
//	monitor:
//	  addr: ":8080"
//	log:
//	  level: info
package config
