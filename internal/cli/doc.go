// Package cli implements the queryops command tree.
//
// Every command loads configuration through config.Load, so flags, files
// and QUERYOPS_* variables combine the same way for ask, chat and serve.
package cli
