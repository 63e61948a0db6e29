// Package html provides an Extractor for HTML documents. It returns the
// readable text of a page with tags, scripts and styles stripped and
// entities decoded.
package html
