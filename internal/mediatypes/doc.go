// Package mediatypes provides format family classification for media files.
//
// The pipeline distinguishes three families: standard raster images whose
// containers may be rewritten and whose decoders auto-apply orientation,
// unencoded-sensor (RAW) formats whose containers are never rewritten, and
// video containers. Everything else is FamilyOther and is skipped.
package mediatypes
