package config

import (
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvOptions captures the environment variables recognized by name.
// Field tags spell out the exact variable names rather than relying on
// envconfig's default prefixing, since several of them (JSR_URL) intentionally
// don't share a common prefix with the rest.
type EnvOptions struct {
	JSRURL string `envconfig:"JSR_URL"`
	NoPrompt bool `envconfig:"DENO_NO_PROMPT"`
	DisablePedanticNodeWarnings bool `envconfig:"DENO_DISABLE_PEDANTIC_NODE_WARNINGS"`
	CoverageDir string `envconfig:"DENO_COVERAGE_DIR"`
	NodeChannelFD string `envconfig:"NODE_CHANNEL_FD"`
	InternalNpmCmdName string `envconfig:"DENO_INTERNAL_NPM_CMD_NAME"`
}

// LoadEnvOptions reads the recognized environment variables into an
// EnvOptions, normalising JSR_URL by forcing a trailing slash.
func LoadEnvOptions() (*EnvOptions, error) {
	var eo EnvOptions
	if err := envconfig.Process("", &eo); err != nil {
		return nil, err
	}
	if eo.JSRURL != "" && !strings.HasSuffix(eo.JSRURL, "/") {
		eo.JSRURL += "/"
	}
	return &eo, nil
}

// ConsumeOnce unsets NODE_CHANNEL_FD and DENO_INTERNAL_NPM_CMD_NAME on the
// current process; it does not read them. Call this exactly once, at process
// startup, after LoadEnvOptions has already captured their values into
// EnvOptions.
func ConsumeOnce() {
	_ = os.Unsetenv("NODE_CHANNEL_FD")
	_ = os.Unsetenv("DENO_INTERNAL_NPM_CMD_NAME")
}

// AsSource converts EnvOptions into a config.Source for precedence merging.
func (eo *EnvOptions) AsSource() Source {
	src := Source{}
	if eo.JSRURL != "" {
		src["jsrurl"] = eo.JSRURL
	}
	if eo.NoPrompt {
		src["noprompt"] = true
	}
	if eo.DisablePedanticNodeWarnings {
		src["disablepedanticnodewarnings"] = true
	}
	if eo.CoverageDir != "" {
		src["coveragedir"] = eo.CoverageDir
	}
	return src
}
