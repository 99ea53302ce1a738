// Package mock provides deterministic test doubles for the ai service
// contracts. Default behavior is derived from input hashes so tests are
// reproducible without network access; function fields allow injecting
// failures and custom responses.
package mock
