// Package httputil provides outbound HTTP helpers for fetching renderer assets.
//
// # Overview
//
// The diagram renderer needs the Mermaid engine script, which operators may
// point at a CDN instead of a local file. This package provides:
//
//   - [Fetch]: GET with status classification and observability hooks
//   - [Retry]: exponential backoff for transient failures, honoring Retry-After
//   - [Cache]: file-based JSON cache with TTL, so the script is downloaded once
//
// # Usage
//
//	c, _ := httputil.NewCache("", 7*24*time.Hour)
//	var script string
//	if ok, _ := c.Get(url, &script); !ok {
//	    body, err := httputil.FetchWithRetry(ctx, http.DefaultClient, url)
//	    if err == nil {
//	        script = string(body)
//	    }
//	    _ = c.Set(url, script)
//	}
package httputil
