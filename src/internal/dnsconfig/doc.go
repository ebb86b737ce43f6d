// Package dnsconfig builds the ordered resolver configuration handed to the
// system DNS publisher.
//
// A configuration is assembled in stages (supplemental, private, default,
// multicast and scoped resolvers), sorted so that the default resolver comes
// first and more specific domains precede broader ones, cleaned up and
// finally signed so that unchanged rebuilds are recognized.
//
// The ResolvConfPublisher renders the default resolver into a resolv.conf
// file.
package dnsconfig
