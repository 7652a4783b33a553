package warp

// Version is the release version, set at build time with
// -ldflags "-X github.com/aretw0/warp.Version=...".
var Version = "dev"
