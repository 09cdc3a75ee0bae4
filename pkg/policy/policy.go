// Package policy is a reference implementation of the router policy
// contract pkg/repeater consumes. It composes ACLs, static bridge rules,
// dynamic talkgroup subscriptions and stream de-duplication into a single
// repeater.Router via Chain. None of this is part of the repeater core;
// a caller is free to pass a nil router, a single ACL, or any other
// repeater.Router implementation instead.
package policy
