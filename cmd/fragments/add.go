package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/config"
	"github.com/sagarc03/fragments/imaging"
	"github.com/sagarc03/fragments/keybackend"
)

var addCmd = &cobra.Command{
	Use:   "add [flags] <file1> [file2] ...",
	Short: "Import local files as fragments",
	Long: `Import local files as new fragments owned by a user.

Each file becomes one fragment with a fresh id. The type is taken from
--type, else from the file extension, else sniffed from image content.
Files whose type is not supported are skipped.

Examples:
  # Add a markdown note for a user
  fragments add --user alice@example.com notes.md

  # Add a directory of images recursively
  fragments add --user alice@example.com -r ./photos

  # Force the type of extensionless files
  fragments add --user alice@example.com --type "text/plain; charset=utf-8" README`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addUser      string
	addOwner     string
	addType      string
	addRecursive bool
	addQuiet     bool
)

func init() {
	addCmd.Flags().StringVarP(&addUser, "user", "u", "", "username that owns the fragments")
	addCmd.Flags().StringVar(&addOwner, "owner", "", "raw owner id (hashed username), instead of --user")
	addCmd.Flags().StringVarP(&addType, "type", "t", "", "content type for every file (default: detect)")
	addCmd.Flags().BoolVarP(&addRecursive, "recursive", "r", false, "recursively add directories")
	addCmd.Flags().BoolVarP(&addQuiet, "quiet", "q", false, "suppress per-file output")
	addCmd.MarkFlagsMutuallyExclusive("user", "owner")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	if err := requirePersistent(cfg); err != nil {
		return fmt.Errorf("add: %w", err)
	}

	ownerID, err := resolveOwner(addUser, addOwner)
	if err != nil {
		return err
	}

	if addType != "" && !fragments.IsSupportedType(addType) {
		return fmt.Errorf("add: unsupported type %q", addType)
	}

	var files []string
	for _, arg := range args {
		paths, collectErr := collectFiles(arg, addRecursive)
		if collectErr != nil {
			return fmt.Errorf("collect files from %s: %w", arg, collectErr)
		}
		files = append(files, paths...)
	}

	if len(files) == 0 {
		slog.Info("no files to add")
		return nil
	}

	ctx := cmd.Context()

	service, b, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	added := 0
	skipped := 0

	for _, path := range files {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", path, readErr)
		}

		contentType := addType
		if contentType == "" {
			contentType = detectType(path, data)
		}
		if contentType == "" {
			skipped++
			if !addQuiet {
				slog.Warn("skipped (unsupported type)", "path", path)
			}
			continue
		}

		f, createErr := service.Create(ctx, ownerID, contentType, data)
		if createErr != nil {
			return fmt.Errorf("add %s: %w", path, createErr)
		}

		added++
		if !addQuiet {
			slog.Info("added", "path", path, "id", f.ID, "type", f.Type, "size", f.Size)
		}
	}

	slog.Info("add complete", "owner", ownerID, "added", added, "skipped", skipped)
	return nil
}

// resolveOwner returns the owner id for --user or --owner.
func resolveOwner(user, owner string) (string, error) {
	switch {
	case user != "":
		return keybackend.OwnerID(user), nil
	case owner != "":
		if !fragments.IsValidKey(owner) {
			return "", fmt.Errorf("invalid owner id %q", owner)
		}
		return owner, nil
	default:
		return "", errors.New("one of --user or --owner is required")
	}
}

// collectFiles gathers regular files from a path, optionally recursively.
func collectFiles(path string, recursive bool) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	if !recursive {
		return nil, fmt.Errorf("%s is a directory (use -r to add recursively)", path)
	}

	var files []string
	walkErr := filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.Type().IsRegular() {
			files = append(files, walkPath)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return files, nil
}

// detectType maps the file extension to a registered type, falling back to
// sniffing image content. It returns "" when neither matches.
func detectType(path string, data []byte) string {
	if t, ok := fragments.TypeForExtension(filepath.Ext(path)); ok {
		return t
	}
	return imaging.Detect(data)
}
