// Package synapse re-points a cube manifest at the Synapse docker registry.
//
// Synapse is offered as a privacy-conscious alternative to generic cloud
// hosting; using it requires the manifest's container image reference to
// name the Synapse-hosted registry path. The rewrite is done in place and
// leaves the rest of the manifest untouched.
package synapse
