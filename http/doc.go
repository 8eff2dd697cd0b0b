// Package http serves the fragments REST API.
//
// # Routes
//
//	GET    /                         health check (unauthenticated)
//	POST   /v1/fragments             create; body is the data, Content-Type its type
//	GET    /v1/fragments             list ids; ?expand=1 lists full records
//	GET    /v1/fragments/{id}        raw data with the fragment's Content-Type
//	GET    /v1/fragments/{id}.{ext}  data converted to the extension's type
//	GET    /v1/fragments/{id}/info   metadata
//	PUT    /v1/fragments/{id}        replace data; Content-Type must not change
//	DELETE /v1/fragments/{id}        delete
//
// # Authentication
//
// Every /v1 route requires HTTP Basic credentials checked by a UserVerifier.
// The owner of a request's fragments is the hex SHA-256 of the username, so
// fragments never cross users:
//
//	users, _ := keybackend.NewUserStore(keybackend.UsersConfig{File: "users.json"})
//	handler := http.NewHandler(&http.HandlerConfig{Users: users}, service)
//	http.ListenAndServe(":8080", handler.Router())
//
// # Responses
//
// JSON responses use a status envelope:
//
//	{"status":"ok","fragment":{...}}
//	{"status":"error","error":{"code":404,"message":"..."}}
//
// Errors map to status codes by sentinel: fragments.ErrNotFound → 404,
// fragments.ErrInvalidInput → 400, fragments.ErrUnsupportedConversion and
// ErrUnsupportedMediaType → 415, fragments.ErrUnauthorized → 401, anything
// else → 500. Create answers 415 for any type the registry rejects, and
// bodies over HandlerConfig.MaxUploadSize get 413.
package http
