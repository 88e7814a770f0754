// Package digest computes SHA-256, SHA-1 and MD5 over a byte stream in a
// single pass. An Accumulator is an io.Writer that fans every chunk into
// the three hash states; Sum finalizes them into a Result of lowercase hex
// digests without consuming the accumulator.
//
// HashFile drives an accumulator with a blocking read loop. HashFileContext
// and HashFileAsync drive the same accumulator with a read loop that
// observes context cancellation at every read boundary.
package digest
