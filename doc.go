// Package noproto implements NoProto's schema compiler and buffer type
// algebra: a textual IDL (plus JSON and YAML surface syntaxes) compiles
// down to a flat ParsedSchema arena and a compact binary form, against
// which structural type expressions such as "Vec<(u32,string)>" resolve
// to a ≤24-byte wire encoding.
package noproto
