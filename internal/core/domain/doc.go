// Package domain contains the core types of the sync engine: connector
// descriptors, configuration fields, sync items and their statuses,
// paginated search results, credentials, and sync jobs.
//
// The domain package has no dependencies on other packages in this
// module and performs no I/O.
package domain
