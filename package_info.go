// Package flagcore is the main package of the feature-flag SDK.
//
// This package contains LDClient's counterpart, Client, and its overall
// configuration, Config. Subpackages provide the pluggable pieces a Config
// assembles: components (builders for the data source, data store, event
// processor, HTTP transport, and logging), evaluation (the flag-rule
// interpreter), fmodel/fuser/fvalue/freason (the data model), fevents (the
// analytics event pipeline), and redisstore (a persistent store backend).
package flagcore
