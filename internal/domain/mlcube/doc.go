// Package mlcube contains core domain types for MLCube packaging.
//
// It defines the Layout (where assets live under a cube root, and the
// canonical names they are staged under) and the Manifest (the subset of
// mlcube.yaml this tooling reads, plus the in-place docker image rewrite
// used for Synapse hosting).
package mlcube
