/*
Package osc implements the OSC 1.0 binary packet format.

A Packet is either a Message (an address pattern plus typed arguments)
or a Bundle (a time tag plus nested packets). Encode and Decode map
packets to and from the wire bytes: 4-byte aligned padded strings,
big-endian fixed-width numbers and length-prefixed blobs.

Arguments reuse the model.Value type so decoded packets feed directly
into tree edits and tree reads render directly to outbound messages.
*/
package osc
