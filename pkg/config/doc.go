// Package config loads csrlink settings.
//
// Settings come from an optional YAML file and are then overridden by
// environment variables prefixed with CSRLINK_, one per YAML key:
//
//	host: 192.168.1.20
//	port: 2222
//	timeout: 1s
//	result_path: ./out
//
// CSRLINK_HOST=10.0.0.5 replaces the host above.
package config
