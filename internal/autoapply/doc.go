// Package autoapply gates which reconciled segments are eligible for
// automatic playback effects.
//
// Each safety mode carries a floor threshold; the user-configured threshold
// can only raise the bar above that floor, never lower it. OFF uses a
// sentinel above the maximum score so nothing ever auto-applies. The filter
// is pure: it performs no scoring of its own and only compares the already
// derived effective confidence against the threshold.
package autoapply
