package cli

import (
	"github.com/safegit/safegit/internal/config"
	"github.com/safegit/safegit/internal/gitexec"
)

// repoEnv resolves the enclosing repository and its .safe configuration for
// wrapper subcommands. The runner is built after the config is read so the
// configured command timeout applies to every probe it runs.
func repoEnv() (*config.Config, *gitexec.Git, error) {
	root, err := gitexec.DiscoverRoot(".")
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gitexec.New(root, cfg.CommandTimeout), nil
}
