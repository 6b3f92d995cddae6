// Package archive reads and writes web resource archives.
//
// A WRA is a zip container whose JavaScript entries live under js/ and whose
// stylesheets live under css/. The Aggregator concatenates the scripts and
// stylesheets of many archives into two outputs; the Builder packages a
// source directory into one archive.
//
// Both stream: no entry is ever held in memory in full.
package archive
