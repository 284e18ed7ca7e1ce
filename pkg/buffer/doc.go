// Package buffer provides thread-safe generic buffers.
//
//   - RingBuffer: a bounded FIFO whose writers never block. When full it
//     overwrites the oldest element and counts the loss. Used for the
//     hardware event queue and the recent-log window.
//
//   - Buffer: a growable append-only buffer. Used to accumulate captured
//     audio samples until a recording stops.
package buffer
