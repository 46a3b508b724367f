package config

import (
	"flag"
	"os"

	"github.com/planhub/planhub/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the PlanHub API
//	-n string   per-user data directory name
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with subcommand arguments.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&config.ServerAddr, "a", config.ServerAddr, "base URL of the PlanHub API")
	fs.StringVar(&config.DataDirName, "n", config.DataDirName, "per-user data directory name")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
