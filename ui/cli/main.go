// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/gitswitch/buildvars"
	"github.com/toeirei/gitswitch/internal/config"
	"github.com/toeirei/gitswitch/internal/core"
	"github.com/toeirei/gitswitch/internal/db"
	"github.com/toeirei/gitswitch/internal/gitconfig"
	"github.com/toeirei/gitswitch/internal/i18n"
	"github.com/toeirei/gitswitch/internal/keygen"
	"github.com/toeirei/gitswitch/internal/logging"
	"github.com/toeirei/gitswitch/internal/mirror"
	"github.com/toeirei/gitswitch/internal/tui"
	"golang.org/x/term"
)

// services is what PersistentPreRunE wires for the running command.
type services struct {
	cfg      config.Config
	store    *db.BunStore
	switcher *core.Switcher
}

var app *services

// Seams swapped by tests.
var (
	newIdentity = func(c config.Config) gitconfig.Identity { return gitconfig.NewCLI(c.Git.Binary) }
	newFs       = afero.NewOsFs
	isTerminal  = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	}
)

func setupDefaultServices(cmd *cobra.Command) error {
	explicitPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig[config.Config](cmd, config.Defaults(), explicitPath)
	// A missing file is expected on first run; persist the defaults.
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		if writeErr := config.WriteConfigFile(&cfg, false); writeErr != nil {
			logging.Warnf("could not write default config file: %v", writeErr)
		} else {
			logging.Debugf("wrote default config to user config path")
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	i18n.Init(cfg.Language)

	store, err := db.NewStoreFromDSN(cfg.Database.Type, cfg.Database.Dsn)
	if err != nil {
		return errors.New(i18n.T("config.error_init_db", err))
	}

	fs := newFs()
	paths := cfg.KeyPaths()
	gen, err := keygen.New(cfg.Keygen.Mode, fs, paths)
	if err != nil {
		_ = store.Close()
		return err
	}
	m := mirror.New(fs, paths, newIdentity(cfg))

	app = &services{cfg: cfg, store: store, switcher: core.NewSwitcher(store, m, gen)}
	logging.Debugf("using %s store, keys at %s", store.Type(), m.Paths().Private)
	return nil
}

func closeServices() error {
	if app == nil {
		return nil
	}
	err := app.store.Close()
	app = nil
	return err
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// Execute runs the CLI entrypoint. The store is closed even when a command
// fails, since cobra skips PersistentPostRunE on errors.
func Execute() error {
	defer func() { _ = closeServices() }()
	return NewRootCmd().Execute()
}

// NewRootCmd builds a fresh command tree; tests call it once per run.
func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "gitswitch",
		Short: "Switch between git identities and their SSH keys",
		Long: `gitswitch keeps several git identities (name, email and an ed25519 SSH key)
and makes exactly one of them active: the global git user.name / user.email
and the SSH key files always belong to the active profile.

Running without a subcommand in a terminal launches the interactive menu.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildvars.VersionOrDefault("dev"),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logging.SetDebug(true)
				db.SetDebug(true)
			}
			return setupDefaultServices(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeServices()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal() {
				return cmd.Help()
			}
			return tui.Run(cmd.Context(), app.switcher)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging (including database logs)")
	pf.String("config", "", "config file")
	pf.String("language", "", `Language ("en", "de")`)
	pf.String("database.type", "", "Database type ("+strings.Join(db.SupportedTypes, ", ")+")")
	pf.String("database.dsn", "", "Database connection string (DSN)")
	pf.String("ssh.dir", "", "Directory holding the active SSH key files")
	pf.String("ssh.key_name", "", "File name of the active private key")
	pf.String("keygen.mode", "", `Key generation: "auto", "ssh-keygen" or "native"`)
	pf.String("git.binary", "", "git executable")

	cmd.AddCommand(
		newListCmd(),
		newAddCmd(),
		newSwitchCmd(),
		newRemoveCmd(),
		newRemoveAllCmd(),
		newShowKeyCmd(),
		newCurrentCmd(),
		newStatusCmd(),
		newSyncCmd(),
		newHistoryCmd(),
		newBackupCmd(),
		newRestoreCmd(),
	)
	return cmd
}
