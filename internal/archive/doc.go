// Package archive unpacks downloaded release assets.
//
// Extraction is delegated to the system unzip and tar programs behind the
// Extractor interface so callers can substitute a fake in tests. A Registry
// picks the extractor from the asset's declared content type.
package archive
