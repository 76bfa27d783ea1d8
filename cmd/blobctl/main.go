// Command blobctl uploads, downloads, deletes and signs objects in a blob
// store, and serves the blob HTTP API.
package main

import (
	"os"

	_ "github.com/kbukum/blobkit/storage/local"
	_ "github.com/kbukum/blobkit/storage/memory"
	_ "github.com/kbukum/blobkit/storage/s3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
