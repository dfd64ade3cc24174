// Package prefstore provides production notify.PreferenceStorage backends.
//
// Two implementations are included:
//
//   - SQLiteStorage: a local key-value table in a SQLite file
//     (modernc.org/sqlite, pure Go). The default for a client-resident core.
//   - RedisStorage: a single JSON entry in Redis, for deployments where the
//     shell syncs preferences through a shared cache.
//
// Both serialize the notify.Preferences struct as JSON under the
// "notification_preferences" key and report an empty store with
// notify.ErrNoSavedPreferences so the Center can fall back to defaults.
package prefstore
