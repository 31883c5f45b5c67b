// Package accountsource composes an account stream into a caller-supplied
// queue.Queue[models.Account], following the precedence original_source's
// accounts.py create_accountQ establishes: an explicit id list first, then
// a file, then a backend query. Each source's goroutine owns exactly one
// AddProducer/Finish pair on the destination queue.
package accountsource
