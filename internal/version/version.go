// ABOUTME: Version constants for the voicewire client
// ABOUTME: Reported in logs and session metadata
package version

const (
	// Version is the client software version
	Version = "0.1.0"

	// Product is the client product name
	Product = "Voicewire Client"

	// UserAgent identifies the client on the wire
	UserAgent = "voicewire-go/" + Version
)
