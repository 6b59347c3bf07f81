// Package thumbnail ingests the live previews posted by console display
// surfaces.
//
// Display surfaces post untyped cross-frame messages. Parse narrows them to
// {kind: "consoleThumbnail", vmId, thumbnail, width?, height?}; everything
// else is ignored. Data URIs are sniffed with mimetype and must carry an
// image. Accepted updates are throttled per VM with a token bucket of burst
// one, and updates for VMs without an open console are dropped as stale.
package thumbnail
