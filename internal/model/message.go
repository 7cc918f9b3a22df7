package model

import "time"

// ChannelSettings holds the per-channel preferences kept in the
// configuration document. Property names are camelCase on disk.
type ChannelSettings struct {
	LoggingEnabled bool     `json:"loggingEnabled"`
	Platform       Platform `json:"platform"`
}

// DefaultChannelSettings is what a newly followed channel starts with.
func DefaultChannelSettings() ChannelSettings {
	return ChannelSettings{LoggingEnabled: true, Platform: PlatformTwitch}
}

// ChatMessage is one archived chat line, resolved to its originating
// channel and platform, with parser-assigned segments.
type ChatMessage struct {
	Channel         string           `json:"channel"`
	Platform        Platform         `json:"platform"`
	Username        string           `json:"username"`
	Message         string           `json:"message"`
	Timestamp       time.Time        `json:"timestamp"`
	IsSystemMessage bool             `json:"isSystemMessage"`
	Segments        []MessageSegment `json:"segments,omitempty"`
}

// MessageSegment is one typed token of a parsed chat message.
type MessageSegment struct {
	Text              string `json:"text"`
	IsMention         bool   `json:"isMention"`
	MentionedUsername string `json:"mentionedUsername,omitempty"`
	IsEmote           bool   `json:"isEmote"`
	EmoteURL          string `json:"emoteUrl,omitempty"`
}

// UserChannelInfo summarizes one channel a user has posted in.
type UserChannelInfo struct {
	ChannelName     string    `json:"channelName"`
	Platform        Platform  `json:"platform"`
	MessageCount    int       `json:"messageCount"`
	LastMessageTime time.Time `json:"lastMessageTime"`
}
