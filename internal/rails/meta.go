// Eventide - Local Event Discovery and Personalization
// Copyright 2026 Eventide Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventide-app/eventide

package rails

import "strings"

// Meta is display metadata for a generated rail.
type Meta struct {
	Title string `json:"title"`
	Emoji string `json:"emoji"`
}

// defaultEmoji decorates categories with no table entry.
const defaultEmoji = "⭐"

// defaultMeta maps category keywords to display metadata. This is
// configuration data, not core logic; Manager accepts an override table.
var defaultMeta = map[string]Meta{
	"music":     {Title: "Live Music", Emoji: "🎵"},
	"jazz":      {Title: "Jazz Nights", Emoji: "🎷"},
	"comedy":    {Title: "Comedy", Emoji: "🎤"},
	"art":       {Title: "Art & Exhibits", Emoji: "🎨"},
	"theater":   {Title: "Theater", Emoji: "🎭"},
	"food":      {Title: "Food & Drink", Emoji: "🍜"},
	"sports":    {Title: "Sports", Emoji: "🏟️"},
	"outdoors":  {Title: "Outdoors", Emoji: "🏕️"},
	"film":      {Title: "Film", Emoji: "🎬"},
	"family":    {Title: "Family", Emoji: "🧸"},
	"nightlife": {Title: "Nightlife", Emoji: "🌙"},
	"markets":   {Title: "Markets", Emoji: "🛍️"},
}

// metaFor resolves display metadata for a category ID, consulting the
// override table first, then the default table by keyword, finally falling
// back to a title-cased category name with the default emoji.
func metaFor(categoryID string, overrides map[string]Meta) Meta {
	if m, ok := overrides[categoryID]; ok {
		return m
	}
	if m, ok := defaultMeta[strings.ToLower(categoryID)]; ok {
		return m
	}

	return Meta{Title: titleCase(categoryID), Emoji: defaultEmoji}
}

// titleCase upper-cases the first letter of each hyphen- or
// underscore-separated word.
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
