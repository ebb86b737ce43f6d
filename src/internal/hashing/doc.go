// Package hashing computes MD5 content signatures.
//
// Sign is used to decide whether a freshly built configuration differs from
// the last published one. ChecksumReaderProxy hashes a stream while it is
// being read, so a state file can be parsed and fingerprinted in one pass:
//
//	proxy := hashing.NewMD5ReaderProxy(f)
//	content, _ := io.ReadAll(proxy)
//	checksum, _ := proxy.GetChecksum()
package hashing
