// Package election ranks network services and picks the primary service
// for each IP protocol family.
//
// A service's rank combines its rank assertion (First, Default, Last or
// Never) with its position in the service order. Candidates are kept
// sorted by rank. A coupled candidate is demoted to Never when the other
// family prefers a different interface, and a top candidate that must not
// carry traffic blocks the election for its family altogether.
package election
