// Package carousel flips through a set of candidate background images.
//
// A [SourceSet] holds the candidate URLs and the current index with circular
// wrap-around. A [Navigator] guards index changes with a confirmation lock:
// each change waits for the new image to report that it has loaded, then a
// short grace period lets the preview settle before the next change may
// start. Requests that arrive while a change is in flight collapse into a
// single pending target that is replayed once the lock is released.
//
//	Idle ──request──▶ ChangeRequested ──▶ AwaitingConfirmation
//	  ▲                                      │           │
//	  │◀──────────── grace ◀── Confirm ──────┘           │ timeout
//	  │◀──────────── grace ◀── Locked ◀──────────────────┘
//
// A change that is never confirmed is forced open after a timeout so the
// carousel cannot deadlock. [DetectDuplicates] flags candidates that look
// identical at thumbnail resolution.
package carousel
