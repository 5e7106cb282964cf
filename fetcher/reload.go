package fetcher

import (
	"fmt"
	"os/exec"
	"strings"
)

// reload runs the configured webserver reload command once. It is invoked at
// most once per run, after all lineages have been processed, and only when
// at least one staple was actually replaced.
func (f *Fetcher) reload() error {
	if len(f.reloadCommand) == 0 {
		return fmt.Errorf("no reload command configured")
	}
	out, err := exec.Command(f.reloadCommand[0], f.reloadCommand[1:]...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed != "" {
			return fmt.Errorf("running %q: %w: %s", strings.Join(f.reloadCommand, " "), err, trimmed)
		}
		return fmt.Errorf("running %q: %w", strings.Join(f.reloadCommand, " "), err)
	}
	return nil
}
