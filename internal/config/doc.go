// Package config provides configuration parsing for the urlstate demo server.
//
// The configuration is stored in urlstate.json. Every field is optional;
// missing values fall back to defaults.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 3000
//	  },
//	  "commit": {
//	    "quietWindow": "100ms"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "urlstate"
//	  },
//	  "tracing": {
//	    "tracerName": "urlstate",
//	    "includeSearch": false
//	  },
//	  "log": {
//	    "level": "info"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
