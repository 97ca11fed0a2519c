// Package config handles loading and validating Show Logic Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (SHOWLOGIC_*)
//   - Validation of required fields
//
// Sensitive values (MQTT password, InfluxDB token, JWT secret) should be
// set via environment variables rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.App.Name)
package config
