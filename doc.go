// The [glide] package is a Go client for Redis and Valkey standalone
// servers, built around a resilient logical connection.
//
// # One logical connection
//
// A [Client] owns exactly one multiplexed connection to the server. Any
// number of goroutines may dispatch commands on it concurrently; replies
// are matched to commands by order on a single transport, so there is no
// connection pool to size or tune.
//
// When the transport drops, the client reconnects in the background and
// retries the interrupted command once on the fresh connection. Concurrent
// callers that observe the same drop wait for that one reconnection
// instead of racing to dial; see [github.com/alex-arzola-imp/glide-for-redis/pkg/connection]
// for the state machine behind this.
//
// Reconnection runs under the retry strategy configured in
// [github.com/alex-arzola-imp/glide-for-redis/pkg/connection.Config]. Once
// the strategy gives up, the client is permanently disconnected and every
// dispatch fails fast; construct a new client to connect again. Backoff
// policies live in [github.com/alex-arzola-imp/glide-for-redis/pkg/retry].
//
// # Commands
//
// The typed command surface covers strings, hashes and sets, for example
// [Client.Get], [Client.HGetAll] and [Client.SAdd]. Replies that require
// more control are available through [Client.CustomCommand] and
// [Client.Send], which return a raw
// [github.com/alex-arzola-imp/glide-for-redis/pkg/resp.Value].
//
// [Batch] groups commands into one pipelined round trip, optionally as a
// MULTI/EXEC transaction; see [Client.Exec].
//
// # Timeouts
//
// Every dispatch waits for its reply under the configured response
// timeout. An expired wait fails that call with
// [github.com/alex-arzola-imp/glide-for-redis/pkg/constants.ErrTimeout]
// but deliberately does not touch the connection: the command may still
// have executed on the server, and the reply stream stays usable.
//
// # Experimental packages
//
// The [github.com/alex-arzola-imp/glide-for-redis/contrib] directory
// contains tools and experimental packages that are not covered by the
// client's backward compatibility guarantee.
package glide
