package noproto

import "github.com/spaolacci/murmur3"

// hashSeed matches the fixed seed used throughout the original schema
// compiler's hashing (original_source/no_proto_rs/src/map.rs's HASH_SEED),
// kept constant so that unique_id is stable across Go and Rust compilations
// of the same schema source.
const hashSeed uint32 = 0

// uniqueID computes a CompiledSchema's unique_id: the wrapping sum of the
// 32-bit murmur3 hash of the top-level __info.id argument and the hash of
// its __info.version argument, per
// original_source/no_proto_rs/src/schema/parser.rs. Either argument may be
// absent, in which case its contribution is zero.
func uniqueID(idText, versionText string) uint32 {
	var id uint32
	if idText != "" {
		id += murmur3.Sum32WithSeed([]byte(idText), hashSeed)
	}
	if versionText != "" {
		id += murmur3.Sum32WithSeed([]byte(versionText), hashSeed)
	}
	return id
}
