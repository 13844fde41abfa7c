package configurator

// Version is the release of the configurator, overridden at build time with
// -ldflags "-X github.com/reliant/configurator.Version=...".
var Version = "0.4.0"
