// Package clientcli provides a client library for a fragments server.
//
// It supports upload, list, get (with conversion), info, update and delete,
// authenticating every request with HTTP Basic credentials. The package
// includes profile-based configuration for managing connections to multiple
// servers.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:8080",
//		Username: "alice@example.com",
//		Password: "secret",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "./notes.md",
//	})
//
// Fetch the same fragment rendered as HTML:
//
//	_, body, err := client.Get(ctx, clientcli.GetOptions{
//		ID:        results[0].Fragment.ID + ".html",
//		LocalPath: "-",
//	})
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := clientcli.ConfigFromProfile(profile)
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
