// Package tool defines the descriptor data model, the uniform invocation
// outcome envelope, and the process-wide registry that binds tool names to
// executors. The registry is built once at startup by an explicit
// composition point and is read-only while requests are served.
package tool
