// Package engine is the level allocation and response validation core.
//
// An Engine owns no state of its own: every operation reads and writes
// through the store, and operations that touch more than one row run in a
// single write transaction. Business outcomes (an unknown worker, a blocked
// worker, an exhausted catalogue, a rejected submission) are returned as
// *Error values carrying a Kind; every other error is an internal fault.
//
// Operations:
//
//	GetUserInfo     resolve a worker and report the next level number
//	GetVideos       allocate a level from a sequence template
//	SaveResponses   validate, score and persist a submission
//	SubmitLevel     record task duration and feedback
//	FixLabelCounts  recompute video label counters from presentations
package engine
