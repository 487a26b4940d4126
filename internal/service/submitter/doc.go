// Package submitter registers a hosted cube with the MedPerf server.
//
// The registration record carries the hosted asset URLs and their SHA-1
// digests from the local deploy manifest; the server re-downloads and
// re-hashes them on its side, so hosting must be verified first.
package submitter
