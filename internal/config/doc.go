// Package config provides configuration parsing for vbind projects.
//
// The configuration is stored in vbind.json at the project root. Relative
// source paths are resolved against the directory holding the file.
//
// # Configuration File Structure
//
//	{
//	  "template": "index.html",
//	  "model": "model.yaml",
//	  "mount": "app",
//	  "ignorePrefixes": ["_"],
//	  "server": {
//	    "port": 3000,
//	    "host": "localhost",
//	    "heartbeat": "25s"
//	  },
//	  "session": {
//	    "resumeWindow": "10m",
//	    "maxPerIP": 50,
//	    "store": {"driver": "bolt", "path": "sessions.db"}
//	  },
//	  "metrics": {"enabled": true},
//	  "s3": {"region": "eu-west-1"},
//	  "log": {"level": "debug", "format": "json"}
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
