// Package deployment persists the deploy manifest produced by the packager.
//
// The manifest is stored as YAML inside the deploy directory and uploaded
// to the hosting folder together with the staged assets; Decode is shared
// with services that fetch the hosted copy over HTTP.
package deployment
