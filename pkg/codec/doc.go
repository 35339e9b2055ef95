/*
Package codec implements the tagged binary encoding used for every record
persisted by the store and for the export/import stream.

A record is a sequence of (name, value) element pairs: the name is an octet
string and the value is an octet string, a boolean, or a nested sequence for
lists and sub-records. Readers walk a decoded sequence two elements at a
time and dispatch on the name, skipping names they do not recognize, which
lets old readers tolerate records written with newer optional fields.

The wire form of each element is a tag byte, a definite length, and the
content bytes. Writer and Reader move whole elements over a stream one at a
time so an export can be consumed incrementally.
*/
package codec
