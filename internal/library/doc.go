// Package library provides an HTTP client for the library management API.
//
// # Overview
//
// The client exposes each remote collection (books, topics, members, issued
// books) as a generic Resource with List, Get, Create, Update and Delete.
// It also covers the authentication endpoints, lending and returning books,
// and the dashboard counters.
//
// # Client Usage
//
//	client, err := library.NewClient("http://127.0.0.1:3000",
//		library.WithCredentials(holder),
//		library.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//
//	page, err := client.Books().List(ctx, library.ListParams{
//		Offset: 2,
//		Limit:  10,
//		Sort:   "title:asc",
//		Search: "dune",
//	})
//
// # List Responses
//
// The server is not consistent about list envelopes. All of these decode to
// the same Page:
//
//   - a bare JSON array
//   - {"data": [...], "page": 2, "totalPages": 5, "total": 48}
//   - {"data": [...], "number": 1, "size": 10, "totalElements": 48, "totalPages": 5}
//   - {"statusCode": 200, "message": "ok", "content": {"data": [...], "offset": 2, "limit": 10, "totalPages": 5, "totalItems": 48}}
//
// The page number comes from "page" or "offset" and falls back to the
// requested offset. "number" is ignored because some endpoints send it
// zero-based. When totalPages is missing it is derived from the total and
// the limit. TotalPages is never less than one. Anything else fails with
// ErrDecode.
//
// Entities may carry "_id" instead of "id", and ids may be numbers. Both
// are normalized to a string "id" before decoding, so callers only see
// Entity.EntityID.
//
// # Authentication
//
// Every request except login carries "Authorization: Bearer <access>" taken
// from the Credentials. A 401 triggers a single refresh through
// /api/authentication/refresh-tokens followed by one retry. Concurrent 401s
// share one refresh.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation
//   - Set Accept: application/json and a librarian User-Agent
//   - Carry a fresh X-Request-ID so server logs can be matched to ours
//   - Return *APIError for status >= 400, with the server's message
//
// Example error messages:
//   - "list books: execute request: dial tcp: connection refused"
//   - "update books 42: api PATCH api/books/42 returned status 400: title should not be empty"
//   - "list topics: unrecognized response shape: object without data array"
package library
