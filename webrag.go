// Package webrag answers natural-language questions about a website using
// only that site's content. It crawls the site, splits pages into
// overlapping chunks, embeds and indexes them, and answers questions from
// the nearest chunks with citations back to their source pages.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gemini/, rod/).
package webrag
