// Package deployment contains core domain types for packaged deploy
// directories.
//
// It defines Asset (digest and size of a staged file), Manifest (the digest
// manifest hosted next to the assets) and Actor (who packaged them) with
// Clone helpers to avoid leaking internal references.
package deployment
