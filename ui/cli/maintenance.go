// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"github.com/toeirei/gitswitch/internal/i18n"
	"github.com/toeirei/gitswitch/internal/model"
	"github.com/toeirei/gitswitch/internal/ui"
)

// errDrift makes `status --check` exit non-zero.
var errDrift = errors.New("git identity or SSH keys diverge from the active profile")

func newStatusCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Compare the active profile with the git identity and SSH key files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := app.switcher.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if r.Active == nil {
				fmt.Fprintln(out, i18n.T("status.no_active"))
			} else {
				fmt.Fprintln(out, i18n.T("status.active", r.Active.String()))
			}
			if !r.HasDrift() {
				fmt.Fprintln(out, i18n.T("status.in_sync"))
				return nil
			}
			fmt.Fprintln(out, i18n.T("status.drift", ui.DriftFields(r)))
			fmt.Fprintln(out, i18n.T("status.hint"))
			if check {
				return errDrift
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Exit with an error when drift is detected")
	return cmd
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Re-apply the active profile to the git identity and SSH key files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.switcher.Sync(cmd.Context())
			if err != nil {
				return err
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("sync.cleared"))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("sync.success", p.String()))
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the audit log of profile changes, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := app.switcher.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, i18n.T("history.empty"))
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, i18n.T("history.header"))
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.Details)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	return cmd
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [output-file]",
		Short: "Write a compressed (zstd) JSON backup of all profiles and keys",
		Long: `Dumps every profile, its SSH keypair, the active profile and the audit log
into a single Zstandard-compressed JSON file.

The backup contains private keys; it is written with mode 0600.

If no output file is given, gitswitch-backup-YYYY-MM-DD.json.zst is used;
otherwise '.zst' is appended when missing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFile := fmt.Sprintf("gitswitch-backup-%s.json.zst", time.Now().Format("2006-01-02"))
			if len(args) == 1 {
				outputFile = args[0]
				if !strings.HasSuffix(outputFile, ".zst") {
					outputFile += ".zst"
				}
			}
			data, err := app.switcher.Backup(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", i18n.T("backup.error_export", err))
			}
			if err := writeCompressedBackup(outputFile, data); err != nil {
				return fmt.Errorf("%s", i18n.T("backup.error_write", err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("backup.success", len(data.Profiles), outputFile))
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <backup-file.zst>",
		Short: "Replace all profiles with the content of a backup",
		Long: `Restores profiles, keys and the active profile from a backup written by
'gitswitch backup'. Existing profiles are replaced; the restored active profile
is applied to the git identity and SSH key files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readCompressedBackup(args[0])
			if err != nil {
				return fmt.Errorf("%s", i18n.T("restore.error_read", err))
			}
			if !yes && !confirm(cmd, i18n.T("restore.prompt", len(data.Profiles))) {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("remove_all.cancelled"))
				return nil
			}
			res, err := app.switcher.Restore(cmd.Context(), data)
			if err != nil {
				return err
			}
			active := "-"
			if res.Active != nil {
				active = res.Active.String()
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("restore.success", res.Profiles, active))
			warnMirror(cmd, res.MirrorErr)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// writeCompressedBackup streams data as indented JSON through a zstd encoder.
// The file holds private keys, so an existing file is narrowed to 0600 too.
func writeCompressedBackup(filename string, data *model.BackupData) (err error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("could not close file: %w", cerr)
		}
	}()
	if err := file.Chmod(0o600); err != nil {
		return fmt.Errorf("could not restrict file mode: %w", err)
	}
	return encodeBackup(file, data)
}

func encodeBackup(w io.Writer, data *model.BackupData) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	return zw.Close()
}

// readCompressedBackup decodes a zstd-compressed JSON backup file.
func readCompressedBackup(filename string) (*model.BackupData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return decodeBackup(file)
}

func decodeBackup(r io.Reader) (*model.BackupData, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zr.Close()

	var data model.BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}
	return &data, nil
}
