// Package ssdash is the library to communicate with the checker server of proxy endpoints.
//
// Client talks to the REST API, and EventScanner reads the push stream.
// The wire types in this package are shared by every component of ssdash.
package ssdash
