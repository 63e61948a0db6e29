// Package normalisers provides implementations of the Extractor interface
// for various document formats. Each normaliser knows how to turn the raw
// bytes of a family of file extensions into plain text.
//
// Normalisers are registered with the Registry at startup.
package normalisers
