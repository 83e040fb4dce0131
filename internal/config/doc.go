// Package config provides loading and environment overlay for pipeline
// configuration. It exposes a Default() baseline, a JSON file loader, and a
// FromEnv overlay for SESSIONFLOW_* variables.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/sessionflow.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
package config
