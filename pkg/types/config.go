package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend   string    `json:"backend" yaml:"backend"`
	DataDir   string    `json:"data_dir" yaml:"data_dir"`
	TagPolicy TagPolicy `json:"tag_policy,omitempty" yaml:"tag_policy,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// TagPolicy selects how the MARKED and HOOKED tags interact.
type TagPolicy string

// Tag policies. An empty policy behaves as TagPolicyHookBlocksMark.
const (
	// TagPolicyHookBlocksMark refuses new MARKED assignments while any
	// project holds HOOKED.
	TagPolicyHookBlocksMark TagPolicy = "hook_blocks_mark"

	// TagPolicyIndependent applies the single-holder rule to each tag on
	// its own.
	TagPolicyIndependent TagPolicy = "independent"
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrTagPolicyUnknown = errors.New("unknown tag policy")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.TagPolicy {
	case "", TagPolicyHookBlocksMark, TagPolicyIndependent:
	default:
		return ErrTagPolicyUnknown
	}
	return nil
}

// GetTagPolicy returns the effective tag policy, applying the default when
// none is configured.
func (c Config) GetTagPolicy() TagPolicy {
	if c.TagPolicy == "" {
		return TagPolicyHookBlocksMark
	}
	return c.TagPolicy
}
