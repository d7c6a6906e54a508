package trbc

import (
	"fmt"
	"os"

	"github.com/trb-lang/trbc/internal/config"
)

const defaultConfigName = "trbconfig.yml"

// loadConfig looks for trbconfig.yml in the current directory. Its
// absence is not an error: every compiler.Compiler method tolerates a
// nil Config and falls back to alongside-source output. When the file
// is present but carries unrecognized top-level keys, those are
// printed as warnings rather than rejected, per spec §6.3.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(defaultConfigName); err != nil {
		return nil, nil
	}
	cfg, err := config.Load(defaultConfigName)
	if err != nil {
		return nil, err
	}
	if unknown, err := config.UnknownKeys(defaultConfigName); err == nil {
		for _, key := range unknown {
			fmt.Fprintf(os.Stderr, "warning: %s: unrecognized key %q\n", defaultConfigName, key)
		}
	}
	return cfg, nil
}
