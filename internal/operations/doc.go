// Package operations contains the enumeration and deletion operations.
// Each subpackage handles one concern and depends only on storeapi.Store.
package operations
