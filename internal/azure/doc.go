// Package azure implements the ARM rate-limit probe client.
//
// The client issues one cheap authenticated GET against the Resource Manager
// API (by default a virtual machine scale set listing) and reads the
// x-ms-ratelimit-remaining-resource response header instead of the body. The
// header enumerates the remaining call budget per resource category before
// throttling applies, e.g.:
//
//	x-ms-ratelimit-remaining-resource:
//	    Microsoft.Compute/HighCostGet3Min;159,Microsoft.Compute/HighCostGet30Min;799
//
// Authentication uses an azidentity client-secret credential built from the
// environment-provided service principal; a token is requested on every
// fetch. Parsing is strict: a single malformed header entry fails the fetch,
// while a missing header is an empty result.
package azure
