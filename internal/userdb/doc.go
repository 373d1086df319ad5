// Package userdb persists the directory of users that may receive exported
// artifacts. It backs the /userinDB lookup and the `users` CLI commands.
//
// The store is a single SQLite file opened through modernc.org/sqlite. Writes
// retry briefly on SQLITE_BUSY so the CLI and daemon can share the file.
package userdb
