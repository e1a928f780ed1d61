// Package httpapi serves the auth and user routes over chi.
//
// Handlers translate JSON and form bodies into Engine calls and map Engine
// errors onto status codes with contactAuth.KindOf. Responses use a
// {"detail": ...} body for errors.
package httpapi
