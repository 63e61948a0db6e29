// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. Beyond domain and the ports they only
// use small pure-Go libraries (hashing, glob matching, text casing).
package services
