package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/blobkit/storage"
	"github.com/kbukum/blobkit/version"
)

// runTask builds the app and runs fn with the storage client started.
func runTask(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, app *blobApp) error) error {
	ctx := cmd.Context()
	app, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	return app.RunTask(ctx, func(ctx context.Context) error {
		return fn(ctx, app)
	})
}

func newUploadCmd(flags *rootFlags) *cobra.Command {
	var (
		key          string
		contentType  string
		cacheControl string
	)
	cmd := &cobra.Command{
		Use:   "upload <file|->",
		Short: "Upload a file (or stdin) and print its key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if contentType == "" && src != "-" {
				contentType = mime.TypeByExtension(filepath.Ext(src))
			}
			if key == "" && src != "-" {
				key = filepath.Base(src)
			}

			return runTask(cmd, flags, func(ctx context.Context, app *blobApp) error {
				r, closeFn, err := openSource(cmd, src)
				if err != nil {
					return err
				}
				defer closeFn()

				opts := storage.UploadOptions{ContentType: contentType, CacheControl: cacheControl}
				var stored string
				if key == "" {
					stored, err = app.client().UploadGenerated(ctx, r, opts)
				} else {
					stored, err = app.client().Upload(ctx, r, key, opts)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), stored)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&key, "key", "k", "", "object key (default: file name; generated for stdin)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type (default: from the file extension)")
	cmd.Flags().StringVar(&cacheControl, "cache-control", "", "cache-control for public containers")
	return cmd
}

func openSource(cmd *cobra.Command, src string) (io.Reader, func(), error) {
	if src == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func newDownloadCmd(flags *rootFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download <key>",
		Short: "Write an object to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, flags, func(ctx context.Context, app *blobApp) error {
				r, err := app.client().StreamResource(ctx, args[0], "")
				if err != nil {
					return err
				}

				if output == "" || output == "-" {
					_, err = io.Copy(cmd.OutOrStdout(), r)
					return err
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close() //nolint:errcheck // Sync error checked below
				if _, err := io.Copy(f, r); err != nil {
					return err
				}
				return f.Sync()
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete an object; absent objects are not an error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, flags, func(ctx context.Context, app *blobApp) error {
				return app.client().DeleteResource(ctx, args[0], "")
			})
		},
	}
}

func newURLCmd(flags *rootFlags) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "url <key>",
		Short: "Print the object's URL, signed for private containers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, flags, func(ctx context.Context, app *blobApp) error {
				lifetime := ttl
				if lifetime == 0 {
					lifetime = app.Cfg.Storage.PresignTTL
				}
				expiry := time.Now().Add(lifetime)

				u, err := app.client().BlobURL(ctx, args[0], "", &expiry)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), u)
				return err
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "signature lifetime (default: storage.presign_ttl)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := version.Get()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s, %s)\n",
				serviceName, v.Version, v.GitCommit, v.BuildTime, v.GoVersion)
			return err
		},
	}
}
