// Package config defines deployment settings used by the mlcube-deploy
// subcommands and provides helpers to load, validate and save them in YAML
// format.
//
// The Config type holds the hosting folder URL, the MedPerf server URL and
// the Synapse registry host. Subcommands persist the settings they were
// invoked with so later commands can default from them.
package config
