// Package hosts selects the code hosting provider behind a details URL and
// merges provider metadata with explicit manifest fields.
//
// A [Registry] holds providers in priority order; the first one whose
// CanHandle accepts a URL answers for it, and a URL nobody recognizes
// yields [ErrNotApplicable]. [Default] wires the GitHub, BitBucket and
// GitLab clients from pkg/integrations.
//
// [OverlayRepo] and [OverlayDownload] implement the precedence rule used
// throughout resolution: a field given in the manifest always beats the
// same field fetched from a host API.
package hosts
