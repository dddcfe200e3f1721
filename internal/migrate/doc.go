// Package migrate generates SQL migrations from the Drizzle schema and
// applies the pending ones to the database named by DATABASE_URL.
//
// Generation is delegated to the migration generator (drizzle-kit by
// default), which writes numbered *.sql files into the migrations
// directory. Application is done here, in-process, through database/sql:
//
//   - postgres:// and postgresql:// URLs use github.com/lib/pq
//   - mysql:// URLs use github.com/go-sql-driver/mysql
//   - sqlite:// and file: URLs use modernc.org/sqlite
//
// Each file runs in its own transaction and is recorded in the
// toyshare_migrations table, so re-running is a no-op. The connection
// pool is closed exactly once before Run returns, on every path.
package migrate
