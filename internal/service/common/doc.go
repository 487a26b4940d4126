// Package common provides shared helpers for the deploy services: an HTTP
// client for hosting folders and the MedPerf server, actor detection for
// the deploy manifest audit fields, SHA-1 digest helpers, and the run
// marker guarding against concurrent deploy runs.
package common
