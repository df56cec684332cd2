// Package list handles enumeration of containers and objects.
// Listings drain every page before returning and are all-or-nothing:
// a failure on any page fails the whole enumeration.
package list
