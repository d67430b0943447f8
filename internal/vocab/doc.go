// Package vocab discovers wildcard vocabulary directories, fingerprints their
// text files, and loads them into a key -> candidate-lines mapping.
//
// A Store caches the loaded mapping together with the signature it was built
// from. Every Snapshot call recomputes the signature (stat only, no reads)
// and reloads from disk only when it differs from the cached one.
//
// Keys are lowercase. A file custom_wildcards/obj/person.txt is reachable
// both by its full key "obj/person" and by its alias "person"; several files
// sharing a basename merge their lines into the alias, deduplicated in
// first-seen order.
package vocab
