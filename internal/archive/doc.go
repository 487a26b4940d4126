// Package archive provides the tar.gz helpers used to stage and fetch
// deployable assets.
//
// CompressDir archives a directory with entry names relative to it, so
// extraction reproduces the directory contents exactly; Extract unpacks an
// archive while refusing entries that would escape the target directory.
package archive
