// Package pool provides the growable byte buffer behind the term encoder and a
// sync.Pool of such buffers.
package pool
