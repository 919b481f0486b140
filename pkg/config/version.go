package config

// SchemaVersion is the version of the browser-mcp config file format understood by this build.
const SchemaVersion = "0.1.0"
