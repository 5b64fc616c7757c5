// Package browser manages the single headless browser shared by all diagram
// renders.
//
// A [Pool] launches the browser lazily on the first [Pool.Acquire] and keeps
// it for the life of the process. Concurrent callers that arrive while a
// launch is in flight wait for that launch rather than starting their own, so
// a burst of first requests produces exactly one browser process. A browser
// that has disconnected is discarded and relaunched on the next acquire.
//
// The launch is bounded by the pool's own timeout and is never tied to the
// request that happened to trigger it: a caller that gives up early does not
// abort a launch other callers are waiting on.
//
// [LaunchChromedp] is the production [LaunchFunc], backed by chromedp. Tests
// substitute fakes through [Options.Launch].
package browser
