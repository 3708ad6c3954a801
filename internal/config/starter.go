package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/artclub/hookrunner/internal/model"
)

// starterHeader is prepended to generated config files so operators can
// see how overrides layer without reading the docs.
const starterHeader = `# hookrunner configuration.
#
# Every value below is the built-in default; delete the lines you don't
# change. Environment variables override this file (SERVER_PORT=9000
# overrides server.port), and a .env file next to the binary overrides
# even exported environment variables.
`

// WriteStarter generates a config file at path containing the default
// configuration in YAML form. It refuses to overwrite an existing file
// unless force is set.
func WriteStarter(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return model.NewCLIError(model.ExitConfigError,
				fmt.Sprintf("config file %q already exists (use --force to overwrite)", path))
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to render starter config", err)
	}

	content := append([]byte(starterHeader), data...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to write config file %q", path), err)
	}
	return nil
}
