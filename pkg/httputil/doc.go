// Package httputil provides the retry policy shared by every outbound HTTP
// call: image loads, font downloads and remote renders.
//
// # Retry
//
// [Retry] runs a function up to n times with doubling delays, but only
// retries errors wrapped in [RetryableError]. Wrap transient failures
// (transport errors, 5xx, 429) and return everything else bare:
//
//	err := httputil.Retry(ctx, 2, 250*time.Millisecond, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckResponse(resp)
//	})
//
// [CheckStatus] applies that classification to a status code, and
// [CheckResponse] also carries the server's Retry-After hint, capped at
// [MaxRetryAfter].
package httputil
