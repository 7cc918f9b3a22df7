package model

import "strings"

// Platform identifies the streaming service a channel belongs to.
type Platform string

const (
	// PlatformTwitch is the baseline platform assumed for shard files that
	// predate the platform-suffixed naming convention.
	PlatformTwitch Platform = "Twitch"
	PlatformKick   Platform = "Kick"
)

// ParsePlatform resolves a platform token case-insensitively.
func ParsePlatform(s string) (Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "twitch":
		return PlatformTwitch, true
	case "kick":
		return PlatformKick, true
	}
	return "", false
}

// NormalizeChannel canonicalizes a channel name: trimmed, leading '#'
// stripped, lower-cased. Every lookup, comparison and persistence path goes
// through this first.
func NormalizeChannel(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "#")
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeUsername canonicalizes a username: trimmed, leading '@' stripped,
// lower-cased.
func NormalizeUsername(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "@")
	return strings.ToLower(strings.TrimSpace(name))
}
