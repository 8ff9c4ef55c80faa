// Package types defines the Store and ProjectTable interfaces, the Project
// entity, configuration, and the standard error values for the hook tracker.
package types
