// Package fetcher downloads hosted MLCube assets into a local directory.
//
// It bootstraps from the hosted deploy manifest, skips files whose local
// copy already matches the recorded digest, and applies downloads with
// digest verification so a corrupted or truncated transfer never replaces
// a good local file.
package fetcher
