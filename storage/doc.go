// Package storage is a facade over a remote object-storage service.
//
// A Client offers upload, buffered download, delete and URL generation.
// Containers are created on first use through a Registry, which caches one
// handle per name for the Client's lifetime and never runs two creations for
// the same name concurrently.
//
// # Backends
//
// Backends register themselves by provider name; import the ones you need:
//
//   - storage/s3: Amazon S3 and S3-compatible services (MinIO)
//   - storage/memory: in-process emulator, used for an empty connection string
//   - storage/local: local filesystem
//
// # Usage
//
//	client, err := storage.New(storage.Options{
//	    ConnectionString: "Provider=s3;Endpoint=http://127.0.0.1:9000;AccessKey=k;SecretKey=s;PathStyle=true",
//	    DefaultContainer: "assets",
//	})
//	key, err := client.UploadBytes(ctx, []byte("hello"), "greeting.txt", storage.UploadOptions{ContentType: "text/plain"})
//	expiry := time.Now().Add(time.Hour)
//	url, err := client.BlobURL(ctx, key, "", &expiry)
package storage
