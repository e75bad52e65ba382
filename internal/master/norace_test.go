//go:build !race

// internal/master/norace_test.go
package master

const raceEnabled = false
