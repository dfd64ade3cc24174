package notify

import "errors"

var (
	// ErrNoSavedPreferences is returned by PreferenceStorage.Load when no
	// preferences have been persisted yet.
	ErrNoSavedPreferences = errors.New("no saved preferences")

	// ErrCenterClosed is returned by operations on a Center after Close.
	ErrCenterClosed = errors.New("notification center is closed")

	// ErrNoPermissionFunc is returned by RequestPermission when the Center
	// was built without a platform permission callback.
	ErrNoPermissionFunc = errors.New("no permission func configured")
)
