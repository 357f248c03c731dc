// Package mem allocates cache-line aligned buffers.
//
// Each unit accumulates its round partial in its own buffers. Starting
// every buffer on a cache line keeps concurrent units from writing to the
// same line.
package mem
