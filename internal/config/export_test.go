package config

// LoadFrom exposes load with an injected environment.
var LoadFrom = load
