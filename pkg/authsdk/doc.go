// Package authsdk is the Go client for the Crestfall auth service. SDKClient
// wraps the HTTP API; Session adds a local signed-in/signed-out state machine
// with token persistence and automatic refresh ahead of expiry.
package authsdk
