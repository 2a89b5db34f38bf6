package models

// Publish channels supported by the module. Each channel has its own
// connector and credential model.
const (
	ChannelX      = "x"
	ChannelGitHub = "github"
	ChannelBlog   = "blog"
	ChannelDevto  = "devto"
)

// Candidate and draft languages.
const (
	LangPL    = "pl"
	LangEN    = "en"
	LangOther = "other"
)

// KnownChannels lists every channel the module can target.
var KnownChannels = []string{ChannelX, ChannelGitHub, ChannelBlog, ChannelDevto}

// KnownDraftLanguages lists the languages drafts can be generated in.
var KnownDraftLanguages = []string{LangPL, LangEN}

// ValidChannel reports whether ch names a known channel.
func ValidChannel(ch string) bool {
	for _, known := range KnownChannels {
		if ch == known {
			return true
		}
	}
	return false
}

// ValidDraftLanguage reports whether lang is a supported draft language.
func ValidDraftLanguage(lang string) bool {
	for _, known := range KnownDraftLanguages {
		if lang == known {
			return true
		}
	}
	return false
}

// SourceChannel maps a candidate source to the channel its content is
// naturally published through. Sources without a dedicated channel map
// to blog.
func SourceChannel(source string) string {
	switch source {
	case "github", "arxiv":
		return ChannelGitHub
	case "hn", "x":
		return ChannelX
	default:
		return ChannelBlog
	}
}
