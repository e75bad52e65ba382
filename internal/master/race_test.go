//go:build race

// internal/master/race_test.go
package master

const raceEnabled = true
