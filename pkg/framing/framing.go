// Package framing implements the DMR burst-framing codecs the repeater's
// fix_headers outbound rewrite calls: sync-pattern stamping, slot-type
// Golay(20,8) encoding, Full LC Reed-Solomon(12,9) encoding, and embedded-LC
// BPTC(16,11) fragmentation across voice bursts B-E. Every codec here is a
// pure function over a *dmrpacket.Packet's payload and the fec package's
// primitives; none of them know about timeslots, queues, or the dispatch
// loop.
package framing
