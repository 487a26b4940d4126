// Package hosting verifies uploaded assets against the deploy manifest.
//
// The hosting contract is intentionally minimal: any provider that exposes
// the uploaded files via plain HTTP GET qualifies. The check downloads the
// hosted manifest and every asset it lists, comparing sizes and SHA-1
// digests with what the packager recorded.
package hosting
