// Package formats reads and writes the chunked asset files produced by the
// exporters.
//
// A file is a fixed header followed by a table of chunk headers and the
// chunk payloads. CGF files hold static geometry, CHR files a skeleton and
// SKIN files skinned geometry referencing a skeleton. All values are
// little-endian and names are fixed-size Windows-1252 fields.
package formats
