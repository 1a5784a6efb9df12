// Package bookmarks provides a personal "save links, read later" service.
// Users submit URLs from the CLI, the HTTP API or the browser extension; the
// backend scrapes page metadata, extracts readable content, classifies the
// content type and optionally enriches items with AI summaries and topics.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gemini/, gin/).
package bookmarks
