// Package config loads reactor.json.
//
// # Configuration File Structure
//
//	{
//	  "maxUpdateCount": 100,
//	  "async": true,
//	  "devMode": true,
//	  "silent": false,
//	  "performance": false,
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "devtools": {
//	    "enabled": true,
//	    "addr": "localhost:7070"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "reactor"
//	  },
//	  "snapshot": {
//	    "bucket": "my-bucket",
//	    "prefix": "reactor/"
//	  }
//	}
//
// Every field can be overridden from the environment: REACTOR_MAX_UPDATE_COUNT,
// REACTOR_ASYNC, REACTOR_DEV_MODE, REACTOR_SILENT, REACTOR_PERFORMANCE,
// REACTOR_LOG_LEVEL, REACTOR_LOG_FORMAT, REACTOR_DEVTOOLS_ENABLED,
// REACTOR_DEVTOOLS_ADDR, REACTOR_METRICS_ENABLED, REACTOR_METRICS_NAMESPACE,
// REACTOR_SNAPSHOT_DIR, REACTOR_SNAPSHOT_BUCKET and REACTOR_SNAPSHOT_PREFIX.
//
// # Usage
//
//	cfg, err := config.LoadFromDir(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
//	    log.Fatal(err)
//	}
//	rt := component.New(component.WithConfig(cfg.Runtime()))
package config
