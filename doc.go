// Package fragments provides owner-scoped storage of typed byte payloads
// ("fragments") with pluggable metadata and blob backends and a conversion
// engine between supported media types.
//
// A fragment is one metadata Record bound to one blob. Records are keyed by
// (ownerID, id); no owner can see or mutate another owner's fragments.
//
// # Key Components
//
//   - Service: creates, looks up, enumerates and deletes fragments
//   - Fragment: the entity; saves metadata, writes and reads data, converts
//   - MetaDataRepo: interface for metadata persistence (memory, SQLite, PostgreSQL)
//   - BlobStorage: interface for payload storage (memory, filesystem, S3, SQLite)
//   - Converter: stateless conversion matrix with injected markdown and image services
//
// # Supported Types
//
// Types are matched by exact string: text/plain, "text/plain; charset=utf-8",
// text/markdown, text/html, application/json, image/png, image/jpeg, image/webp
// and image/gif. Each belongs to one conversion family.
//
// # Example Usage
//
//	img, err := imaging.New(imaging.Options{JPEGQuality: 90})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	conv, err := fragments.NewConverter(markdown.New(markdown.Options{GFM: true}), img)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	service, err := fragments.NewService(repo, blobs, conv, fragments.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f, err := service.Create(ctx, owner, "text/markdown", []byte("# Title"))
//	data, err := f.Data(ctx)
//	html, err := f.ConvertType(data, "text/html")
//
// # Consistency
//
// When the metadata and blob backends are separate, SetData and Delete perform
// two independent writes and are not atomic. Backends that implement
// AtomicStore (memory, SQLite) perform both in one transaction. Service.Reap
// removes blobs left behind by interrupted deletes.
package fragments
