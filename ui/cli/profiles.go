// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/toeirei/gitswitch/internal/core"
	"github.com/toeirei/gitswitch/internal/i18n"
	"github.com/toeirei/gitswitch/internal/keygen"
	"github.com/toeirei/gitswitch/internal/ui"
)

// writeClipboard is swapped by tests; the real one needs a display.
var writeClipboard = clipboard.WriteAll

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profiles, err := app.switcher.Profiles(ctx)
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(profiles) == 0 {
				fmt.Fprintln(out, i18n.T("list.empty"))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, i18n.T("list.header"))
			for _, p := range profiles {
				fingerprint := "-"
				if pub, err := app.switcher.PublicKey(ctx, p.Email); err == nil {
					if info, err := keygen.ParsePublicKey(pub); err == nil {
						fingerprint = info.Fingerprint
					}
				}
				marker := ""
				if p.Active {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, p.Name, p.Email, fingerprint)
			}
			return w.Flush()
		},
	}
}

func newAddCmd() *cobra.Command {
	var copyKey bool
	cmd := &cobra.Command{
		Use:   "add <name> <email>",
		Short: "Add a profile, generate its SSH key and make it active",
		Long: `Creates a new profile with a fresh ed25519 key (no passphrase, the email as
comment) and makes it the active one. The public key is printed so it can be
registered with your git hosting service.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.switcher.AddProfile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.DescribeAdd(res))
			fmt.Fprintln(out, i18n.T("add.public_key_hint"))
			fmt.Fprintln(out, strings.TrimSpace(string(res.PublicKey)))
			warnMirror(cmd, res.MirrorErr)
			if copyKey {
				copyToClipboard(cmd, res.PublicKey)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&copyKey, "copy", false, "Copy the new public key to the clipboard")
	return cmd
}

func newSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch [email]",
		Short: "Activate a profile; without an email a random other profile is chosen",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res core.SwitchResult
				err error
			)
			if len(args) == 1 {
				res, err = app.switcher.SwitchTo(cmd.Context(), args[0])
			} else {
				res, err = app.switcher.SwitchRandom(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.DescribeSwitch(res))
			warnMirror(cmd, res.MirrorErr)
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <email>",
		Aliases: []string{"rm"},
		Short:   "Remove a profile and its stored keys",
		Long: `Removes the profile. If it was the active one, its git identity and key
files are cleared and a random remaining profile becomes active.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.switcher.RemoveProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.DescribeRemove(res))
			warnMirror(cmd, res.MirrorErr)
			return nil
		},
	}
}

func newRemoveAllCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove-all",
		Short: "Remove every profile and clear the git identity and SSH key files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd, i18n.T("remove_all.prompt")) {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("remove_all.cancelled"))
				return nil
			}
			res, err := app.switcher.RemoveAll(cmd.Context(), true)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.DescribeRemoveAll(res))
			warnMirror(cmd, res.MirrorErr)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newShowKeyCmd() *cobra.Command {
	var copyKey bool
	cmd := &cobra.Command{
		Use:   "show-key [email]",
		Short: "Print the public key of a profile, or of the current git identity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pub []byte
			if len(args) == 1 {
				var err error
				if pub, err = app.switcher.PublicKey(cmd.Context(), args[0]); err != nil {
					return err
				}
			} else {
				cur, err := app.switcher.Current(cmd.Context())
				if err != nil {
					return err
				}
				switch {
				case !cur.EmailSet:
					return errors.New(i18n.T("current.none"))
				case cur.Profile == nil:
					return errors.New(i18n.T("current.unknown", cur.Email))
				}
				pub = cur.PublicKey
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(pub)))
			if copyKey {
				copyToClipboard(cmd, pub)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&copyKey, "copy", false, "Copy the public key to the clipboard")
	return cmd
}

func newCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the configured git identity and the profile it belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := app.switcher.Current(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cur.EmailSet {
				fmt.Fprintln(out, i18n.T("current.none"))
				return nil
			}
			fmt.Fprintln(out, i18n.T("current.identity", cur.Name, cur.Email))
			if cur.Profile == nil {
				fmt.Fprintln(out, i18n.T("current.unknown", cur.Email))
				return nil
			}
			fmt.Fprintln(out, i18n.T("current.match", cur.Profile.String()))
			if info, err := keygen.ParsePublicKey(cur.PublicKey); err == nil {
				fmt.Fprintln(out, i18n.T("current.fingerprint", info.Fingerprint))
			}
			return nil
		},
	}
}

func warnMirror(cmd *cobra.Command, err error) {
	if w := ui.MirrorWarning(err); w != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), w)
	}
}

func copyToClipboard(cmd *cobra.Command, pub []byte) {
	if err := writeClipboard(strings.TrimSpace(string(pub))); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("clipboard.failed", err))
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("clipboard.copied"))
}

// confirm asks prompt on the command's output and reads a yes/no answer
// from its input.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "j", "ja":
		return true
	}
	return false
}
