// Package hook carries the release version of the hook tool.
package hook

const Version = "0.3.0"
