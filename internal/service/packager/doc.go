// Package packager stages MLCube assets for hosting.
//
// It collects the cube manifest, parameters file and the optional
// additional-files and image archives into the deploy directory under
// canonical names, records their SHA-1 digests in the deploy manifest, and
// optionally produces a single compressed archive of the staged directory.
// The resulting files are uploaded by the operator to any hosting provider
// that serves them via plain HTTP GET.
package packager
