// Package `linechat` implements line chat over TCP: the server and the terminal client in one binary.
//
// Launch the server:
//
//	linechat --server
//
// Connect the client:
//
//	CLIENT_NAME=alice linechat --client
//
// Both roles are configured with environment variables (see usage output),
// variables can also be placed into .env file in working directory.
//
// Quickly launch server with command:
//
//	go run . --server
package main
