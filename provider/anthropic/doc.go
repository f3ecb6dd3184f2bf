// Package anthropic implements provider.Client for the Anthropic Messages API.
//
// The client talks to the API over net/http and decodes Server-Sent Events
// itself. Like the other providers it is created uninitialized; the HTTP
// client is built on first use and dropped again by Close.
package anthropic
