// Package twofactor issues and verifies single-use numeric login challenges.
//
// # Design
//
// One challenge is live per user under "2fa:<userID>"; issuing a new one
// overwrites the previous record. Verification reads the record, compares the
// code in constant time and, on a match, removes the record only if it still
// holds the exact bytes that were read. Two concurrent verifications of one
// code therefore yield at most one Verified.
//
// A wrong code leaves the record in place and is reported to the attempt
// guard. When the guard answers Locked the challenge is discarded.
//
// Any store failure during Verify yields Expired.
//
// # What this package must NOT do
//
//   - Deliver codes; the orchestrator hands them to a notify.Sender.
//   - Log or return codes from Verify.
package twofactor
