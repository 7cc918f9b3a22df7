package model

// EmoteLookup is the catalog of known emotes, consulted by the message
// parser to classify tokens. The catalog itself lives outside this layer.
type EmoteLookup interface {
	// EmoteURL reports the image URL for an emote code, if known.
	EmoteURL(code string) (string, bool)
}

// MessageParser turns raw message text into an ordered list of typed
// segments. The concrete parser is an external collaborator; this layer
// only invokes it.
type MessageParser interface {
	ParseMessage(raw string, emotes EmoteLookup) []MessageSegment
}
