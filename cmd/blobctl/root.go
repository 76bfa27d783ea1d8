package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/blobkit/version"
)

type rootFlags struct {
	configFile       string
	envFile          string
	connectionString string
	container        string
	logLevel         string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Manage objects in a blob store",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file (default: ./config.yml or ./cmd/blobctl/config.yml)")
	pf.StringVar(&flags.envFile, "env-file", "", "env file to load before reading the environment")
	pf.StringVar(&flags.connectionString, "connection-string", "", "storage connection string, e.g. Provider=s3;Endpoint=http://localhost:9000")
	pf.StringVar(&flags.container, "container", "", "default container")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newUploadCmd(flags),
		newDownloadCmd(flags),
		newDeleteCmd(flags),
		newURLCmd(flags),
		newServeCmd(flags),
		newVersionCmd(),
	)
	return root
}
