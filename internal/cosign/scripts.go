package cosign

import (
	"fmt"
	"os"
	"regexp"

	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/rs/zerolog/log"
)

var whitespace = regexp.MustCompile(`\s`)

func normalizeScript(script string) string {
	return whitespace.ReplaceAllString(script, "")
}

// LoadAllowedScripts reads the transaction templates the custodial wallets
// may sign and resolves their contract placeholders.
func LoadAllowedScripts(paths []string, registry *fcl.AddressRegistry) ([]string, error) {
	scripts := make([]string, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read allowed script %s: %w", path, err)
		}
		scripts = append(scripts, registry.ProcessScript(string(raw)))
		log.Info().Msg(fmt.Sprintf("Allowing custodial signatures for %s", path))
	}
	return scripts, nil
}
